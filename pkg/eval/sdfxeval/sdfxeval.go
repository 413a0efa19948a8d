// Package sdfxeval adapts github.com/deadsy/sdfx's sdf.SDF3 — a CAD
// kernel library — to the eval.Evaluator contract, so solids built
// with sdfx's constructive library (sdf.Box3D, sdf.Union3D,
// sdf.Transform3D, and the rest) can be rendered by the same core
// recursion as fexpr trees.
//
// sdf.SDF3 only exposes point evaluation and a bounding box, not an
// expression tree, so interval evaluation here uses the Lipschitz-1
// bound technique: every sdf.SDF3 produced by sdfx's primitives and
// combinators is (at least approximately) a signed distance field,
// meaning |f(p) - f(c)| <= |p - c| for any two points p, c. Evaluating
// once at a box's center and widening by the box's half-diagonal
// therefore soundly bounds the field over the whole box. This is the
// same technique soypat-sdf's octree renderer uses (dc3.IsEmpty,
// gleval.go) to prune its octree without needing an expression tree.
package sdfxeval

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/heightfield/pkg/eval"
)

// gradEpsilon is the central-difference step for Derivs, matching
// fexpr.Evaluator's and soypat-sdf's NormalsCentralDiff technique.
const gradEpsilon = 1e-4

// Evaluator is a concrete eval.Evaluator backed by a single sdf.SDF3.
// Push/Pop are no-ops: an sdf.SDF3 is an opaque function, not an
// expression tree, so there is no subtree structure to disable. A
// push-depth counter is still kept so Push/Pop imbalance is caught
// the same way fexpr.Evaluator catches it.
type Evaluator struct {
	solid sdf.SDF3
	n     int
	m     eval.Matrix
	pos   [][3]float64
	depth int
}

// New returns an Evaluator over solid with batch capacity n.
func New(solid sdf.SDF3, n int) *Evaluator {
	return &Evaluator{
		solid: solid,
		n:     n,
		m:     eval.Identity(),
		pos:   make([][3]float64, n),
	}
}

func (e *Evaluator) Capacity() int { return e.n }

func (e *Evaluator) SetMatrix(m eval.Matrix) { e.m = m }

func (e *Evaluator) SetRaw(pos [3]float64, k int) { e.pos[k] = pos }

func (e *Evaluator) Set(pos [3]float64, k int) { e.pos[k] = e.m.Apply(pos) }

func (e *Evaluator) ApplyTransform(count int) {
	for k := 0; k < count; k++ {
		e.pos[k] = e.m.Apply(e.pos[k])
	}
}

func (e *Evaluator) Values(count int) []float32 {
	out := make([]float32, count)
	for k := 0; k < count; k++ {
		p := e.pos[k]
		out[k] = float32(e.solid.Evaluate(v3.Vec{X: p[0], Y: p[1], Z: p[2]}))
	}
	return out
}

func (e *Evaluator) Derivs(count int) (dx, dy, dz []float32) {
	dx = make([]float32, count)
	dy = make([]float32, count)
	dz = make([]float32, count)
	for k := 0; k < count; k++ {
		p := e.pos[k]
		dx[k] = float32((e.at(p[0]+gradEpsilon, p[1], p[2]) - e.at(p[0]-gradEpsilon, p[1], p[2])) / (2 * gradEpsilon))
		dy[k] = float32((e.at(p[0], p[1]+gradEpsilon, p[2]) - e.at(p[0], p[1]-gradEpsilon, p[2])) / (2 * gradEpsilon))
		dz[k] = float32((e.at(p[0], p[1], p[2]+gradEpsilon) - e.at(p[0], p[1], p[2]-gradEpsilon)) / (2 * gradEpsilon))
	}
	return
}

func (e *Evaluator) at(x, y, z float64) float64 {
	return e.solid.Evaluate(v3.Vec{X: x, Y: y, Z: z})
}

// Eval bounds the field over [lower,upper] via the Lipschitz-1
// center-plus-half-diagonal technique described in the package doc.
func (e *Evaluator) Eval(lower, upper [3]float64) eval.Interval {
	center := [3]float64{
		(lower[0] + upper[0]) / 2,
		(lower[1] + upper[1]) / 2,
		(lower[2] + upper[2]) / 2,
	}
	half := [3]float64{
		(upper[0] - lower[0]) / 2,
		(upper[1] - lower[1]) / 2,
		(upper[2] - lower[2]) / 2,
	}
	radius := math.Sqrt(half[0]*half[0] + half[1]*half[1] + half[2]*half[2])
	fc := e.at(center[0], center[1], center[2])
	return eval.Interval{Lo: fc - radius, Hi: fc + radius}
}

// Push records a push frame. It has no pruning effect: see the type
// doc comment.
func (e *Evaluator) Push() { e.depth++ }

// Pop matches a Push. It panics on an unbalanced call, the same
// contract fexpr.Evaluator and internal/evaltest.Fake enforce.
func (e *Evaluator) Pop() {
	if e.depth == 0 {
		panic("sdfxeval: Pop without matching Push")
	}
	e.depth--
}

// PushDepth exposes the current push-stack depth, for balance
// assertions in tests.
func (e *Evaluator) PushDepth() int { return e.depth }
