package fexpr

import "github.com/chazu/heightfield/pkg/eval"

// gradEpsilon is the central-difference step used by Derivs. It is
// the same finite-difference technique soypat-sdf's
// gleval.NormalsCentralDiff uses to turn an arbitrary scalar field
// into a gradient without requiring an analytic derivative per node.
const gradEpsilon = 1e-4

// Evaluator is a concrete eval.Evaluator backed by a fexpr.Tree. It
// is the reference/test backend exercised by the renderer's
// end-to-end scenarios, and the shape the dsl front end's compiler
// targets.
type Evaluator struct {
	tree *Tree
	n    int
	m    eval.Matrix

	pos [][3]float64

	activity *eval.ActivityStack
	cache    []eval.Interval // per-node interval from the last Eval call
}

// NewEvaluator returns an Evaluator over tree with batch capacity n.
func NewEvaluator(tree *Tree, n int) *Evaluator {
	return &Evaluator{
		tree:     tree,
		n:        n,
		m:        eval.Identity(),
		pos:      make([][3]float64, n),
		activity: eval.NewActivityStack(tree.NumNodes()),
		cache:    make([]eval.Interval, tree.NumNodes()),
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
		out[k] = float32(e.evalPoint(e.tree.Root, e.pos[k]))
	}
	return out
}

func (e *Evaluator) Derivs(count int) (dx, dy, dz []float32) {
	dx = make([]float32, count)
	dy = make([]float32, count)
	dz = make([]float32, count)
	for k := 0; k < count; k++ {
		p := e.pos[k]
		dx[k] = float32((e.evalAt(p[0]+gradEpsilon, p[1], p[2]) - e.evalAt(p[0]-gradEpsilon, p[1], p[2])) / (2 * gradEpsilon))
		dy[k] = float32((e.evalAt(p[0], p[1]+gradEpsilon, p[2]) - e.evalAt(p[0], p[1]-gradEpsilon, p[2])) / (2 * gradEpsilon))
		dz[k] = float32((e.evalAt(p[0], p[1], p[2]+gradEpsilon) - e.evalAt(p[0], p[1], p[2]-gradEpsilon)) / (2 * gradEpsilon))
	}
	return
}

func (e *Evaluator) evalAt(x, y, z float64) float64 {
	return e.evalPoint(e.tree.Root, [3]float64{x, y, z})
}

func (e *Evaluator) evalPoint(id NodeID, p [3]float64) float64 {
	n := &e.tree.nodes[id]
	switch n.op {
	case opConst:
		return n.val
	case opX:
		return p[0]
	case opY:
		return p[1]
	case opZ:
		return p[2]
	case opNeg:
		return -e.evalPoint(n.a, p)
	case opAbs:
		v := e.evalPoint(n.a, p)
		if v < 0 {
			return -v
		}
		return v
	case opTranslate:
		q := [3]float64{p[0] - n.offset[0], p[1] - n.offset[1], p[2] - n.offset[2]}
		return e.evalPoint(n.a, q)
	case opRotateZ:
		q := [3]float64{p[0]*n.cos - p[1]*n.sin, p[0]*n.sin + p[1]*n.cos, p[2]}
		return e.evalPoint(n.a, q)
	case opAdd:
		return e.evalPoint(n.a, p) + e.evalPoint(n.b, p)
	case opSub:
		return e.evalPoint(n.a, p) - e.evalPoint(n.b, p)
	case opMul:
		return e.evalPoint(n.a, p) * e.evalPoint(n.b, p)
	case opMin:
		if !e.activity.Active(int(n.a)) {
			return e.evalPoint(n.b, p)
		}
		if !e.activity.Active(int(n.b)) {
			return e.evalPoint(n.a, p)
		}
		return minf(e.evalPoint(n.a, p), e.evalPoint(n.b, p))
	case opMax:
		if !e.activity.Active(int(n.a)) {
			return e.evalPoint(n.b, p)
		}
		if !e.activity.Active(int(n.b)) {
			return e.evalPoint(n.a, p)
		}
		return maxf(e.evalPoint(n.a, p), e.evalPoint(n.b, p))
	}
	return 0
}

func (e *Evaluator) Eval(lower, upper [3]float64) eval.Interval {
	return intervalEval(e.tree, e.tree.Root, lower, upper, activityView{e.activity}, e.cache)
}

// Push walks the tree from the root, consulting the interval cache
// populated by the most recent Eval call, and disables whichever
// child of each active Min/Max node cannot influence the result
// (its interval lies entirely above/below its sibling's). See
// intervalEval's doc comment for why this remains sound as Eval is
// subsequently called on narrower sub-boxes.
func (e *Evaluator) Push() {
	e.activity.Push()
	e.pushNode(e.tree.Root)
}

func (e *Evaluator) pushNode(id NodeID) {
	n := &e.tree.nodes[id]
	switch n.op {
	case opMin:
		if !e.activity.Active(int(n.a)) {
			e.pushNode(n.b)
			return
		}
		if !e.activity.Active(int(n.b)) {
			e.pushNode(n.a)
			return
		}
		a, b := e.cache[n.a], e.cache[n.b]
		switch {
		case a.Lo > b.Hi:
			e.activity.Disable(int(n.a))
			e.pushNode(n.b)
		case b.Lo > a.Hi:
			e.activity.Disable(int(n.b))
			e.pushNode(n.a)
		default:
			e.pushNode(n.a)
			e.pushNode(n.b)
		}
	case opMax:
		if !e.activity.Active(int(n.a)) {
			e.pushNode(n.b)
			return
		}
		if !e.activity.Active(int(n.b)) {
			e.pushNode(n.a)
			return
		}
		a, b := e.cache[n.a], e.cache[n.b]
		switch {
		case a.Hi < b.Lo:
			e.activity.Disable(int(n.a))
			e.pushNode(n.b)
		case b.Hi < a.Lo:
			e.activity.Disable(int(n.b))
			e.pushNode(n.a)
		default:
			e.pushNode(n.a)
			e.pushNode(n.b)
		}
	case opAdd, opSub, opMul:
		e.pushNode(n.a)
		e.pushNode(n.b)
	case opNeg, opAbs, opTranslate, opRotateZ:
		e.pushNode(n.a)
	}
}

func (e *Evaluator) Pop() { e.activity.Pop() }

// PushDepth exposes the current push-stack depth, for balance
// assertions in tests.
func (e *Evaluator) PushDepth() int { return e.activity.Depth() }

// activityView adapts *eval.ActivityStack to the activeSet interface
// intervalEval expects.
type activityView struct{ s *eval.ActivityStack }

func (v activityView) Active(id NodeID) bool { return v.s.Active(int(id)) }
