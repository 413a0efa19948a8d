// Package fexpr implements a small, concrete f-rep expression tree
// and a batched Evaluator over it. It exists to give the core
// renderer (which only depends on the eval.Evaluator contract) a
// real, testable backend driven entirely by trees built with this
// package.
//
// The node set is deliberately minimal — constants, the three axis
// variables, arithmetic, min/max, negation, absolute value, and
// point-reparameterizing translate/rotate — because every CSG
// primitive used by the dsl front end (sphere, box, half-space,
// union, intersection, difference) can be expressed as a composite of
// these, the way sdfx itself composes sdf.Box3D/sdf.Union3D from its
// own primitive/combinator split.
package fexpr

import "math"

func cosSin(angle float64) (float64, float64) { return math.Cos(angle), math.Sin(angle) }

// NodeID indexes a node within a Tree or Builder.
type NodeID int32

type op int

const (
	opConst op = iota
	opX
	opY
	opZ
	opAdd
	opSub
	opMul
	opMin
	opMax
	opNeg
	opAbs
	opTranslate
	opRotateZ
)

type node struct {
	op       op
	a, b     NodeID
	val      float64
	offset   [3]float64 // used only by opTranslate
	cos, sin float64    // used only by opRotateZ
}

// Tree is an immutable DAG of nodes rooted at Root. Trees are safe
// for concurrent read-only use by multiple Evaluators.
type Tree struct {
	nodes []node
	Root  NodeID
}

// NumNodes returns the number of nodes in the tree, i.e. the size an
// Evaluator's per-node activity mask must have.
func (t *Tree) NumNodes() int { return len(t.nodes) }

// Builder accumulates nodes before producing an immutable Tree.
type Builder struct {
	nodes []node
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) push(n node) NodeID {
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, n)
	return id
}

// Const returns a node holding the constant value v.
func (b *Builder) Const(v float64) NodeID { return b.push(node{op: opConst, val: v}) }

// X, Y, Z return nodes for the axis variables.
func (b *Builder) X() NodeID { return b.push(node{op: opX}) }
func (b *Builder) Y() NodeID { return b.push(node{op: opY}) }
func (b *Builder) Z() NodeID { return b.push(node{op: opZ}) }

// Add, Sub, Mul are the binary arithmetic ops.
func (b *Builder) Add(a, c NodeID) NodeID { return b.push(node{op: opAdd, a: a, b: c}) }
func (b *Builder) Sub(a, c NodeID) NodeID { return b.push(node{op: opSub, a: a, b: c}) }
func (b *Builder) Mul(a, c NodeID) NodeID { return b.push(node{op: opMul, a: a, b: c}) }

// Min and Max are the binary selection ops used to build CSG
// combinators (union = Min, intersection = Max).
func (b *Builder) Min(a, c NodeID) NodeID { return b.push(node{op: opMin, a: a, b: c}) }
func (b *Builder) Max(a, c NodeID) NodeID { return b.push(node{op: opMax, a: a, b: c}) }

// Neg and Abs are unary ops.
func (b *Builder) Neg(a NodeID) NodeID { return b.push(node{op: opNeg, a: a}) }
func (b *Builder) Abs(a NodeID) NodeID { return b.push(node{op: opAbs, a: a}) }

// Translate reparameterizes child's evaluation point by -offset: the
// subtree rooted at child sees (x-dx, y-dy, z-dz) instead of (x,y,z).
func (b *Builder) Translate(child NodeID, dx, dy, dz float64) NodeID {
	return b.push(node{op: opTranslate, a: child, offset: [3]float64{dx, dy, dz}})
}

// RotateZ reparameterizes child's evaluation point by rotating it
// -angle radians about the Z axis, so the subtree appears rotated by
// +angle in the scene: a turntable rotation in the renderer's XY
// ground plane, the natural rotation for arranging solids under a
// Z-up heightfield (mirrors Translate's reparameterization approach).
func (b *Builder) RotateZ(child NodeID, angle float64) NodeID {
	// Reparameterizing by the inverse rotation (-angle) makes the
	// child appear rotated by +angle, exactly as Translate's -offset
	// makes the child appear shifted by +offset.
	c, s := cosSin(-angle)
	return b.push(node{op: opRotateZ, a: child, cos: c, sin: s})
}

// Build freezes the Builder into an immutable Tree rooted at root.
func (b *Builder) Build(root NodeID) *Tree {
	nodes := make([]node, len(b.nodes))
	copy(nodes, b.nodes)
	return &Tree{nodes: nodes, Root: root}
}
