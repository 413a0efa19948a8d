// Package render implements the heightfield CORE: the recursive,
// interval-pruned subdivision renderer and the parallel driver that
// dispatches it across a pool of evaluators, one per worker.
//
// This package depends only on the eval.Evaluator contract, on
// voxels.View for subdivision, and on rimage for the output buffers —
// never on a concrete expression-tree or SDF implementation. That
// boundary lets the fexpr and sdfxeval backends be swapped freely.
package render

import (
	"sync"
	"sync/atomic"

	"github.com/chazu/heightfield/pkg/eval"
	"github.com/chazu/heightfield/pkg/raster"
	"github.com/chazu/heightfield/pkg/rimage"
	"github.com/chazu/heightfield/pkg/voxels"
)

// Recurse drives the subdivision of View r against depth/norm using
// evaluator e, honoring abort. It returns false if the render was
// cancelled partway through (in which case depth/norm hold undefined
// partial results for this subtree), true otherwise.
//
// Push/Pop on e are balanced on every return path, including
// cancellation.
func Recurse(e eval.Evaluator, r voxels.View, depth *rimage.Depth, norm *rimage.Normal, abort *atomic.Bool) bool {
	if abort.Load() {
		return false
	}
	if r.Voxels() == 0 {
		return true
	}

	sx, sy, sz := r.Size()
	cx, cy, _ := r.Corner()
	topZ := float32(r.Z(sz - 1))

	if blockFullyOccluded(depth, cx, cy, sx, sy, topZ) {
		return true
	}

	if r.Voxels() <= e.Capacity() {
		raster.Pixels(e, r, depth, norm)
		return true
	}

	iv := e.Eval(r.Lower(), r.Upper())

	switch {
	case iv.Hi < 0:
		// Entirely inside: flood-fill, no further evaluation needed.
		raster.Fill(e, r, depth, norm)
		return true

	case iv.Lo <= 0:
		// Ambiguous: descend, visiting the higher-Z child first so
		// later (lower-Z) descents can be skipped once occluded.
		e.Push()
		lo, hi := r.Split()
		if !Recurse(e, hi, depth, norm, abort) {
			e.Pop()
			return false
		}
		if !Recurse(e, lo, depth, norm, abort) {
			e.Pop()
			return false
		}
		e.Pop()
		return true

	default:
		// Entirely outside (iv.Lo > 0): nothing to do.
		return true
	}
}

// blockFullyOccluded reports whether every pixel in the [cx,cx+sx) x
// [cy,cy+sy) footprint already holds a depth at or above topZ, in
// which case the whole block is provably invisible and can be
// skipped without touching the evaluator.
func blockFullyOccluded(depth *rimage.Depth, cx, cy, sx, sy int, topZ float32) bool {
	for j := 0; j < sy; j++ {
		for i := 0; i < sx; i++ {
			if depth.At(cx+i, cy+j) < topZ {
				return false
			}
		}
	}
	return true
}

// Render fills depth and norm (initializing them first) by rendering
// Voxels v with one evaluator per worker, applying transform m, and
// honoring abort. It splits v's root View along X/Y only until there
// are len(evaluators) disjoint tiles or the next tile to split is one
// voxel wide along X or Y (see splitIntoTiles), dispatches one
// goroutine per tile, joins them all, then stamps the sky sentinel
// over every pixel that reached the grid's top Z plane.
func Render(evaluators []eval.Evaluator, v *voxels.Voxels, abort *atomic.Bool, m eval.Matrix, depth *rimage.Depth, norm *rimage.Normal) {
	depth.Fill()
	norm.Fill()

	if len(evaluators) == 0 {
		return
	}
	tiles := splitIntoTiles(v.View(), len(evaluators))

	var wg sync.WaitGroup
	for i, tile := range tiles {
		e := evaluators[i]
		e.SetMatrix(m)
		wg.Add(1)
		go func(e eval.Evaluator, tile voxels.View) {
			defer wg.Done()
			Recurse(e, tile, depth, norm, abort)
		}(e, tile)
	}
	wg.Wait()

	stampSky(depth, norm, float32(v.Z(v.Nz()-1)))
}

// New allocates depth/norm images sized to v and calls Render.
func New(evaluators []eval.Evaluator, v *voxels.Voxels, abort *atomic.Bool, m eval.Matrix) (*rimage.Depth, *rimage.Normal) {
	depth := rimage.NewDepth(v.Nx(), v.Ny())
	norm := rimage.NewNormal(v.Nx(), v.Ny())
	Render(evaluators, v, abort, m, depth, norm)
	return depth, norm
}

// splitIntoTiles builds a work list starting from root, splitting the
// front element along X or Y only, until there are at least workers
// disjoint tiles or the front element is one voxel wide along X or Y.
// In the latter case it stops even if other tiles could still be split.
func splitIntoTiles(root voxels.View, workers int) []voxels.View {
	if workers < 1 {
		workers = 1
	}
	tiles := []voxels.View{root}
	for len(tiles) < workers {
		front := tiles[0]
		sx, sy, _ := front.Size()
		if minInt(sx, sy) <= 1 {
			break
		}
		tiles = tiles[1:]
		lo, hi := front.SplitXY()
		tiles = append(tiles, lo, hi)
	}
	return tiles
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// stampSky overwrites the normal of every pixel whose depth reached
// the grid's topmost Z sample with the sky sentinel, regardless of
// which tile wrote it.
func stampSky(depth *rimage.Depth, norm *rimage.Normal, topZ float32) {
	for i, d := range depth.Px {
		if d == topZ {
			norm.Px[i] = rimage.SkySentinel
		}
	}
}
