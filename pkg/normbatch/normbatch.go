// Package normbatch implements the normal batcher: it accumulates
// (pixel, z) entries up to the evaluator's batch capacity, then asks
// the evaluator for gradients and blits packed normals into the
// normal image in bulk.
package normbatch

import (
	"math"

	"github.com/chazu/heightfield/pkg/eval"
	"github.com/chazu/heightfield/pkg/rimage"
	"github.com/chazu/heightfield/pkg/voxels"
)

// Batcher queues surface points discovered while rasterizing one
// View and flushes them through the evaluator's gradient pass. It is
// scope-local to a single pixels/fill call: it must be Flush-ed
// before it goes out of scope, and it panics on Close if any entries
// remain unflushed.
type Batcher struct {
	e    eval.Evaluator
	v    voxels.View
	norm *rimage.Normal

	xs, ys []int
	count  int
}

// New returns a Batcher bound to evaluator e, the View r being
// rasterized, and the destination normal image.
func New(e eval.Evaluator, r voxels.View, norm *rimage.Normal) *Batcher {
	n := e.Capacity()
	return &Batcher{
		e:    e,
		v:    r,
		norm: norm,
		xs:   make([]int, n),
		ys:   make([]int, n),
	}
}

// Push records pixel (i,j) local to the View, at world Z position z,
// staging the corresponding 3D point into the evaluator (with the
// installed transform applied) for a later batched gradient pass. If
// the batch is now full, it runs immediately.
func (b *Batcher) Push(i, j int, z float64) {
	cx, cy, _ := b.v.Corner()
	b.xs[b.count] = cx + i
	b.ys[b.count] = cy + j
	b.e.Set([3]float64{b.v.X(i), b.v.Y(j), z}, b.count)
	b.count++
	if b.count == b.e.Capacity() {
		b.run()
	}
}

// run asks the evaluator for gradients at all staged points, packs
// and writes the resulting normals, and resets the queue.
func (b *Batcher) run() {
	dx, dy, dz := b.e.Derivs(b.count)
	for k := 0; k < b.count; k++ {
		nx, ny, nz := normalize(dx[k], dy[k], dz[k])
		b.norm.Set(b.xs[k], b.ys[k], rimage.Pack(nx, ny, nz))
	}
	b.count = 0
}

// normalize returns the unit vector of (dx,dy,dz), falling back to
// straight up when the gradient has zero length so the packed normal
// never contains NaN.
func normalize(dx, dy, dz float32) (float32, float32, float32) {
	length := float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
	if length == 0 {
		return 0, 0, 1
	}
	return dx / length, dy / length, dz / length
}

// Flush runs the batch if any entries are queued.
func (b *Batcher) Flush() {
	if b.count > 0 {
		b.run()
	}
}

// Close panics if any entries remain unflushed: letting a Batcher go
// out of scope with queued work is a programmer error.
func (b *Batcher) Close() {
	if b.count != 0 {
		panic("normbatch: Batcher closed with unflushed entries")
	}
}

// Count returns the number of currently-queued, unflushed entries.
// Callers must ensure this is 0 before the Batcher goes out of scope.
func (b *Batcher) Count() int {
	return b.count
}
