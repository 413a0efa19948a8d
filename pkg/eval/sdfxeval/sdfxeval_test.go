package sdfxeval_test

import (
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/chazu/heightfield/pkg/eval"
	"github.com/chazu/heightfield/pkg/eval/sdfxeval"
)

var _ eval.Evaluator = (*sdfxeval.Evaluator)(nil)

func mustSphere(t *testing.T, r float64) sdf.SDF3 {
	t.Helper()
	s, err := sdf.Sphere3D(r)
	if err != nil {
		t.Fatalf("sdf.Sphere3D: %v", err)
	}
	return s
}

func evalOne(e *sdfxeval.Evaluator, p [3]float64) float32 {
	e.SetRaw(p, 0)
	e.ApplyTransform(1)
	return e.Values(1)[0]
}

func TestValuesMatchSDF3Evaluate(t *testing.T) {
	s := mustSphere(t, 1)
	e := sdfxeval.New(s, 8)

	if v := evalOne(e, [3]float64{0, 0, 0}); v >= 0 {
		t.Fatalf("center: got %v, want < 0", v)
	}
	if v := evalOne(e, [3]float64{2, 0, 0}); v <= 0 {
		t.Fatalf("outside: got %v, want > 0", v)
	}

	want := s.Evaluate(v3.Vec{X: 0.5, Y: 0.25, Z: 0})
	got := evalOne(e, [3]float64{0.5, 0.25, 0})
	if !scalar.EqualWithinAbs(float64(got), want, 1e-6) {
		t.Fatalf("Values = %v, want sdf.SDF3.Evaluate result %v within tolerance", got, want)
	}
}

func TestEvalIntervalBoundsSampledPoints(t *testing.T) {
	s := mustSphere(t, 1)
	e := sdfxeval.New(s, 64)

	lower := [3]float64{-2, -2, -2}
	upper := [3]float64{2, 2, 2}
	iv := e.Eval(lower, upper)

	const steps = 7
	for i := 0; i < steps; i++ {
		for j := 0; j < steps; j++ {
			for k := 0; k < steps; k++ {
				p := [3]float64{
					lower[0] + (upper[0]-lower[0])*float64(i)/(steps-1),
					lower[1] + (upper[1]-lower[1])*float64(j)/(steps-1),
					lower[2] + (upper[2]-lower[2])*float64(k)/(steps-1),
				}
				v := float64(evalOne(e, p))
				if v < iv.Lo-1e-9 || v > iv.Hi+1e-9 {
					t.Fatalf("sample %v = %v escapes interval [%v,%v]", p, v, iv.Lo, iv.Hi)
				}
			}
		}
	}
}

func TestEvalIntervalShrinksWithBox(t *testing.T) {
	s := mustSphere(t, 1)
	e := sdfxeval.New(s, 8)

	wide := e.Eval([3]float64{-2, -2, -2}, [3]float64{2, 2, 2})
	narrow := e.Eval([3]float64{-0.1, -0.1, -0.1}, [3]float64{0.1, 0.1, 0.1})

	if narrow.Hi-narrow.Lo >= wide.Hi-wide.Lo {
		t.Fatalf("narrower box should produce a tighter interval: wide=%v narrow=%v", wide, narrow)
	}
}

func TestPushPopBalance(t *testing.T) {
	s := mustSphere(t, 1)
	e := sdfxeval.New(s, 8)

	e.Push()
	e.Push()
	if e.PushDepth() != 2 {
		t.Fatalf("PushDepth() = %d, want 2", e.PushDepth())
	}
	e.Pop()
	e.Pop()
	if e.PushDepth() != 0 {
		t.Fatalf("PushDepth() = %d, want 0", e.PushDepth())
	}
}

func TestPopWithoutPushPanics(t *testing.T) {
	s := mustSphere(t, 1)
	e := sdfxeval.New(s, 8)

	defer func() {
		if recover() == nil {
			t.Fatal("expected Pop without Push to panic")
		}
	}()
	e.Pop()
}

func TestDerivsPointOutwardFromSphere(t *testing.T) {
	s := mustSphere(t, 1)
	e := sdfxeval.New(s, 8)

	e.SetRaw([3]float64{1, 0, 0}, 0)
	e.ApplyTransform(1)
	dx, _, _ := e.Derivs(1)

	if dx[0] <= 0 {
		t.Fatalf("dx at +X surface = %v, want > 0 (outward)", dx[0])
	}
}

func TestTransformedSolidViaBoxAndTranslate(t *testing.T) {
	box, err := sdf.Box3D(v3.Vec{X: 2, Y: 2, Z: 2}, 0)
	if err != nil {
		t.Fatalf("sdf.Box3D: %v", err)
	}
	m := sdf.Translate3d(v3.Vec{X: 5, Y: 0, Z: 0})
	shifted := sdf.Transform3D(box, m)

	e := sdfxeval.New(shifted, 8)
	if v := evalOne(e, [3]float64{5, 0, 0}); v >= 0 {
		t.Fatalf("shifted center: got %v, want < 0", v)
	}
	if v := evalOne(e, [3]float64{0, 0, 0}); v <= 0 {
		t.Fatalf("original center now outside: got %v, want > 0", v)
	}
}
