// Package evaltest provides a small, exact Evaluator implementation
// used by the renderer packages' own tests (normbatch, raster,
// render). It is not a performance-minded implementation: it
// evaluates a plain Go closure per staged point and computes
// gradients analytically, so tests can assert exact, bit-reproducible
// output instead of tolerating an approximation's error bars.
package evaltest

import "github.com/chazu/heightfield/pkg/eval"

// Func is a scalar field plus its analytic gradient and a sound
// interval bound, used to build a Fake Evaluator for tests.
type Func struct {
	F    func(x, y, z float64) float64
	Grad func(x, y, z float64) (dx, dy, dz float64)
	// Eval returns a sound bound on F over [lower,upper]. If nil, the
	// Fake evaluator falls back to sampling the box's 8 corners,
	// which is only a valid bound for functions monotone on each
	// axis (true of HalfSpace, false in general of Sphere).
	Eval func(lower, upper [3]float64) eval.Interval
}

// Sphere returns a Func for a sphere of radius r centered at c, with
// f = |p-c|^2 - r^2. Its interval bound uses the closest/farthest
// point of the box to the center, which is exact for this convex
// field.
func Sphere(c [3]float64, r float64) Func {
	f := func(x, y, z float64) float64 {
		dx, dy, dz := x-c[0], y-c[1], z-c[2]
		return dx*dx + dy*dy + dz*dz - r*r
	}
	return Func{
		F: f,
		Grad: func(x, y, z float64) (float64, float64, float64) {
			return 2 * (x - c[0]), 2 * (y - c[1]), 2 * (z - c[2])
		},
		Eval: func(lower, upper [3]float64) eval.Interval {
			var near, far float64
			for axis := 0; axis < 3; axis++ {
				lo, hi, cc := lower[axis], upper[axis], c[axis]
				// Closest coordinate in [lo,hi] to cc.
				closest := cc
				if closest < lo {
					closest = lo
				}
				if closest > hi {
					closest = hi
				}
				d := closest - cc
				near += d * d
				// Farthest coordinate in [lo,hi] from cc.
				dLo, dHi := cc-lo, hi-cc
				far += maxf(dLo*dLo, dHi*dHi)
			}
			return eval.Interval{Lo: near - r*r, Hi: far - r*r}
		},
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// HalfSpace returns a Func for f = z - offset.
func HalfSpace(offset float64) Func {
	return Func{
		F:    func(x, y, z float64) float64 { return z - offset },
		Grad: func(x, y, z float64) (float64, float64, float64) { return 0, 0, 1 },
	}
}

// Const returns a Func with a fixed value everywhere (zero gradient).
func Const(v float64) Func {
	return Func{
		F:    func(x, y, z float64) float64 { return v },
		Grad: func(x, y, z float64) (float64, float64, float64) { return 0, 0, 0 },
		Eval: func(lower, upper [3]float64) eval.Interval {
			return eval.Interval{Lo: v, Hi: v}
		},
	}
}

// Fake is a capacity-N Evaluator driven by a Func, used to unit-test
// the renderer's batching, staging, and push/pop discipline without
// depending on a full expression-tree implementation.
type Fake struct {
	fn  Func
	n   int
	m   eval.Matrix
	pos [][3]float64

	pushDepth int
	MaxPush   int // high-water mark, for balance assertions in tests
}

// NewFake returns a Fake Evaluator with batch capacity n, bound to fn.
func NewFake(fn Func, n int) *Fake {
	return &Fake{fn: fn, n: n, m: eval.Identity(), pos: make([][3]float64, n)}
}

func (f *Fake) Capacity() int          { return f.n }
func (f *Fake) SetMatrix(m eval.Matrix) { f.m = m }

func (f *Fake) SetRaw(pos [3]float64, k int) { f.pos[k] = pos }
func (f *Fake) Set(pos [3]float64, k int)    { f.pos[k] = f.m.Apply(pos) }

func (f *Fake) ApplyTransform(count int) {
	for i := 0; i < count; i++ {
		f.pos[i] = f.m.Apply(f.pos[i])
	}
}

func (f *Fake) Values(count int) []float32 {
	out := make([]float32, count)
	for i := 0; i < count; i++ {
		p := f.pos[i]
		out[i] = float32(f.fn.F(p[0], p[1], p[2]))
	}
	return out
}

func (f *Fake) Derivs(count int) (dx, dy, dz []float32) {
	dx = make([]float32, count)
	dy = make([]float32, count)
	dz = make([]float32, count)
	for i := 0; i < count; i++ {
		p := f.pos[i]
		gx, gy, gz := f.fn.Grad(p[0], p[1], p[2])
		dx[i], dy[i], dz[i] = float32(gx), float32(gy), float32(gz)
	}
	return dx, dy, dz
}

// Eval returns fn's sound interval bound if one was supplied,
// otherwise falls back to sampling the box's 8 corners (valid only
// for axis-monotone fields; see Func.Eval's doc comment).
func (f *Fake) Eval(lower, upper [3]float64) eval.Interval {
	if f.fn.Eval != nil {
		return f.fn.Eval(lower, upper)
	}
	lo, hi := positiveInf, negativeInf
	for _, x := range [2]float64{lower[0], upper[0]} {
		for _, y := range [2]float64{lower[1], upper[1]} {
			for _, z := range [2]float64{lower[2], upper[2]} {
				v := f.fn.F(x, y, z)
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
		}
	}
	return eval.Interval{Lo: lo, Hi: hi}
}

const (
	positiveInf = 1e300 * 10
	negativeInf = -1e300 * 10
)

func (f *Fake) Push() {
	f.pushDepth++
	if f.pushDepth > f.MaxPush {
		f.MaxPush = f.pushDepth
	}
}

func (f *Fake) Pop() {
	if f.pushDepth == 0 {
		panic("evaltest: Pop without matching Push")
	}
	f.pushDepth--
}

// PushDepth returns the current push-stack depth, for balance
// assertions at the end of a test.
func (f *Fake) PushDepth() int { return f.pushDepth }

var _ eval.Evaluator = (*Fake)(nil)
