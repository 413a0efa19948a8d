package fexpr

import "github.com/chazu/heightfield/pkg/eval"

// intervalEval computes the sound interval of node id over the box
// [lower,upper], writing every visited node's result into cache so
// Push can later read it. active gates Min/Max descent: when one
// child of a Min/Max is inactive, the other child's interval alone
// determines the result, and the inactive child is never visited.
//
// Soundness of skipping the inactive child rests on interval
// arithmetic being inclusion isotonic: a box shrinks monotonically as
// recursion descends, so a dominance relation established on an
// enclosing box (by Push, via this same cache) still holds on every
// sub-box.
// activeSet reports whether a node id is currently active. A nil
// activeSet means "everything is active"; Evaluator.Eval always passes
// a non-nil one.
type activeSet interface {
	Active(id NodeID) bool
}

func intervalEval(t *Tree, id NodeID, lower, upper [3]float64, active activeSet, cache []eval.Interval) eval.Interval {
	n := &t.nodes[id]
	var out eval.Interval
	switch n.op {
	case opConst:
		out = eval.Interval{Lo: n.val, Hi: n.val}
	case opX:
		out = eval.Interval{Lo: lower[0], Hi: upper[0]}
	case opY:
		out = eval.Interval{Lo: lower[1], Hi: upper[1]}
	case opZ:
		out = eval.Interval{Lo: lower[2], Hi: upper[2]}
	case opNeg:
		a := intervalEval(t, n.a, lower, upper, active, cache)
		out = eval.Interval{Lo: -a.Hi, Hi: -a.Lo}
	case opAbs:
		a := intervalEval(t, n.a, lower, upper, active, cache)
		out = intervalAbs(a)
	case opTranslate:
		lo2 := [3]float64{lower[0] - n.offset[0], lower[1] - n.offset[1], lower[2] - n.offset[2]}
		hi2 := [3]float64{upper[0] - n.offset[0], upper[1] - n.offset[1], upper[2] - n.offset[2]}
		out = intervalEval(t, n.a, lo2, hi2, active, cache)
	case opRotateZ:
		lo2, hi2 := rotateZBounds(lower, upper, n.cos, n.sin)
		out = intervalEval(t, n.a, lo2, hi2, active, cache)
	case opAdd:
		a := intervalEval(t, n.a, lower, upper, active, cache)
		b := intervalEval(t, n.b, lower, upper, active, cache)
		out = eval.Interval{Lo: a.Lo + b.Lo, Hi: a.Hi + b.Hi}
	case opSub:
		a := intervalEval(t, n.a, lower, upper, active, cache)
		b := intervalEval(t, n.b, lower, upper, active, cache)
		out = eval.Interval{Lo: a.Lo - b.Hi, Hi: a.Hi - b.Lo}
	case opMul:
		a := intervalEval(t, n.a, lower, upper, active, cache)
		b := intervalEval(t, n.b, lower, upper, active, cache)
		out = intervalMul(a, b)
	case opMin:
		switch {
		case active != nil && !active.Active(n.a):
			out = intervalEval(t, n.b, lower, upper, active, cache)
		case active != nil && !active.Active(n.b):
			out = intervalEval(t, n.a, lower, upper, active, cache)
		default:
			a := intervalEval(t, n.a, lower, upper, active, cache)
			b := intervalEval(t, n.b, lower, upper, active, cache)
			out = eval.Interval{Lo: minf(a.Lo, b.Lo), Hi: minf(a.Hi, b.Hi)}
		}
	case opMax:
		switch {
		case active != nil && !active.Active(n.a):
			out = intervalEval(t, n.b, lower, upper, active, cache)
		case active != nil && !active.Active(n.b):
			out = intervalEval(t, n.a, lower, upper, active, cache)
		default:
			a := intervalEval(t, n.a, lower, upper, active, cache)
			b := intervalEval(t, n.b, lower, upper, active, cache)
			out = eval.Interval{Lo: maxf(a.Lo, b.Lo), Hi: maxf(a.Hi, b.Hi)}
		}
	}
	if cache != nil {
		cache[id] = out
	}
	return out
}

// rotateZBounds returns an axis-aligned box that soundly encloses the
// rotation of [lower,upper] by the given cos/sin about Z. The image of
// a rectangle under a linear map is the parallelogram spanned by the
// images of its four corners, so the AABB of those four transformed
// corners is a sound (and tight) enclosure — the same corner-sampling
// technique sdfx's own bounding-box code relies on when transforming
// boxes through an arbitrary affine matrix.
func rotateZBounds(lower, upper [3]float64, c, s float64) (lo2, hi2 [3]float64) {
	corners := [4][2]float64{
		{lower[0], lower[1]},
		{lower[0], upper[1]},
		{upper[0], lower[1]},
		{upper[0], upper[1]},
	}
	minX, minY := rotX(corners[0], c, s), rotY(corners[0], c, s)
	maxX, maxY := minX, minY
	for _, p := range corners[1:] {
		x, y := rotX(p, c, s), rotY(p, c, s)
		minX, maxX = minf(minX, x), maxf(maxX, x)
		minY, maxY = minf(minY, y), maxf(maxY, y)
	}
	lo2 = [3]float64{minX, minY, lower[2]}
	hi2 = [3]float64{maxX, maxY, upper[2]}
	return
}

func rotX(p [2]float64, c, s float64) float64 { return p[0]*c - p[1]*s }
func rotY(p [2]float64, c, s float64) float64 { return p[0]*s + p[1]*c }

func intervalAbs(a eval.Interval) eval.Interval {
	switch {
	case a.Lo >= 0:
		return a
	case a.Hi <= 0:
		return eval.Interval{Lo: -a.Hi, Hi: -a.Lo}
	default:
		return eval.Interval{Lo: 0, Hi: maxf(-a.Lo, a.Hi)}
	}
}

func intervalMul(a, b eval.Interval) eval.Interval {
	c1, c2 := a.Lo*b.Lo, a.Lo*b.Hi
	c3, c4 := a.Hi*b.Lo, a.Hi*b.Hi
	lo := minf(minf(c1, c2), minf(c3, c4))
	hi := maxf(maxf(c1, c2), maxf(c3, c4))
	return eval.Interval{Lo: lo, Hi: hi}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
