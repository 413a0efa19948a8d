package dsl_test

import (
	"strings"
	"testing"

	"github.com/chazu/heightfield/pkg/dsl"
	"github.com/chazu/heightfield/pkg/eval/fexpr"
)

func evalAt(t *testing.T, tree *fexpr.Tree, p [3]float64) float32 {
	t.Helper()
	e := fexpr.NewEvaluator(tree, 8)
	e.SetRaw(p, 0)
	e.ApplyTransform(1)
	return e.Values(1)[0]
}

func TestEvaluateSphereScene(t *testing.T) {
	eng := dsl.NewEngine()
	tree, errs, err := eng.Evaluate(`(scene (sphere :radius 1 :center (vec3 0 0 0)))`)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("Evaluate errors: %v", errs)
	}
	if v := evalAt(t, tree, [3]float64{0, 0, 0}); v >= 0 {
		t.Fatalf("center: got %v, want < 0", v)
	}
	if v := evalAt(t, tree, [3]float64{5, 0, 0}); v <= 0 {
		t.Fatalf("outside: got %v, want > 0", v)
	}
}

func TestEvaluateUnionOfTranslatedSpheres(t *testing.T) {
	eng := dsl.NewEngine()
	src := `
(scene
  (union
    (translate (sphere :radius 0.5) :by (vec3 -1 0 0))
    (translate (sphere :radius 0.5) :by (vec3 1 0 0))))
`
	tree, errs, err := eng.Evaluate(src)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("Evaluate errors: %v", errs)
	}
	if v := evalAt(t, tree, [3]float64{-1, 0, 0}); v >= 0 {
		t.Fatalf("left center: got %v, want < 0", v)
	}
	if v := evalAt(t, tree, [3]float64{1, 0, 0}); v >= 0 {
		t.Fatalf("right center: got %v, want < 0", v)
	}
	if v := evalAt(t, tree, [3]float64{0, 0, 0}); v <= 0 {
		t.Fatalf("midpoint: got %v, want > 0", v)
	}
}

func TestEvaluateBoxMinusSphere(t *testing.T) {
	eng := dsl.NewEngine()
	src := `(scene (difference (box :size (vec3 2 2 2)) (sphere :radius 0.5)))`
	tree, _, err := eng.Evaluate(src)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if v := evalAt(t, tree, [3]float64{0, 0, 0}); v <= 0 {
		t.Fatalf("center carved out: got %v, want > 0", v)
	}
	if v := evalAt(t, tree, [3]float64{0.9, 0, 0}); v >= 0 {
		t.Fatalf("near box wall, outside sphere: got %v, want < 0", v)
	}
}

func TestEvaluateRotateMovesOffAxisPrimitive(t *testing.T) {
	eng := dsl.NewEngine()
	src := `(scene (rotate (translate (sphere :radius 0.5) :by (vec3 2 0 0)) :angle 1.5707963267948966))`
	tree, errs, err := eng.Evaluate(src)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("Evaluate errors: %v", errs)
	}
	// A quarter turn about Z should carry the sphere from (2,0,0) to
	// approximately (0,2,0), and (2,0,0) should now be outside.
	if v := evalAt(t, tree, [3]float64{0, 2, 0}); v >= 0 {
		t.Fatalf("rotated center: got %v, want < 0", v)
	}
	if v := evalAt(t, tree, [3]float64{2, 0, 0}); v <= 0 {
		t.Fatalf("original center after rotation: got %v, want > 0", v)
	}
}

func TestEvaluateHalfSpaceKeyword(t *testing.T) {
	// half-space (kebab-case) must reach the half_space builtin via
	// source preprocessing.
	eng := dsl.NewEngine()
	tree, errs, err := eng.Evaluate(`(scene (half-space :offset 0))`)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("Evaluate errors: %v", errs)
	}
	if v := evalAt(t, tree, [3]float64{0, 0, -1}); v >= 0 {
		t.Fatalf("below: got %v, want < 0", v)
	}
	if v := evalAt(t, tree, [3]float64{0, 0, 1}); v <= 0 {
		t.Fatalf("above: got %v, want > 0", v)
	}
}

func TestEvaluateEmptySourceReturnsError(t *testing.T) {
	eng := dsl.NewEngine()
	_, errs, err := eng.Evaluate("   ")
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if len(errs) == 0 {
		t.Fatal("expected an EvalError for empty source")
	}
}

func TestEvaluateMissingSceneReturnsError(t *testing.T) {
	eng := dsl.NewEngine()
	_, errs, err := eng.Evaluate(`(sphere :radius 1)`)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if len(errs) == 0 {
		t.Fatal("expected an EvalError when no (scene ...) names a root")
	}
}

func TestEvaluateSyntaxErrorReturnsEvalError(t *testing.T) {
	eng := dsl.NewEngine()
	_, errs, err := eng.Evaluate("(scene (sphere :radius 1)")
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if len(errs) == 0 {
		t.Fatal("expected a syntax EvalError for unbalanced parens")
	}
}

func TestEvaluateUndefinedSymbolReportsError(t *testing.T) {
	eng := dsl.NewEngine()
	_, errs, err := eng.Evaluate(`(scene (not-a-real-builtin))`)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if len(errs) == 0 {
		t.Fatal("expected an EvalError for an undefined builtin")
	}
}

func TestEvalErrorMessageIncludesLineWhenPresent(t *testing.T) {
	e := dsl.EvalError{Line: 3, Message: "boom"}
	if !strings.Contains(e.Error(), "line 3") {
		t.Fatalf("Error() = %q, want it to mention line 3", e.Error())
	}
}
