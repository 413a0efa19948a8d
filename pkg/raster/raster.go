// Package raster implements the two non-recursive rasterization
// primitives used once a View has been proven small enough (Pixels)
// or entirely inside the solid (Fill) by the recursive renderer.
package raster

import (
	"github.com/chazu/heightfield/pkg/eval"
	"github.com/chazu/heightfield/pkg/normbatch"
	"github.com/chazu/heightfield/pkg/rimage"
	"github.com/chazu/heightfield/pkg/voxels"
)

// Pixels flattens every voxel of View r in a fixed (i,j,k) order with
// k walked so the highest Z is visited first within each (x,y)
// column, evaluates the whole View in one batch, and extracts the
// first (highest) filled voxel per column. Precondition:
// r.Voxels() <= e.Capacity().
func Pixels(e eval.Evaluator, r voxels.View, depth *rimage.Depth, norm *rimage.Normal) {
	sx, sy, sz := r.Size()
	cx, cy, _ := r.Corner()

	index := 0
	// Phase 1: stage every voxel whose column isn't already fully
	// occluded by a higher-z hit from a previous View.
	for i := 0; i < sx; i++ {
		for j := 0; j < sy; j++ {
			if depth.At(cx+i, cy+j) >= float32(r.Z(sz-1)) {
				continue // column already occluded up to the top of this View
			}
			for k := 0; k < sz; k++ {
				zIdx := sz - 1 - k
				p := [3]float64{r.X(i), r.Y(j), r.Z(zIdx)}
				e.SetRaw(p, index)
				index++
			}
		}
	}
	e.ApplyTransform(index)
	out := e.Values(index)

	nb := normbatch.New(e, r, norm)
	index = 0
	for i := 0; i < sx; i++ {
		for j := 0; j < sy; j++ {
			if depth.At(cx+i, cy+j) >= float32(r.Z(sz-1)) {
				continue // matches the staging skip above exactly
			}
			for k := 0; k < sz; k++ {
				zIdx := sz - 1 - k
				v := out[index]
				index++
				if v < 0 {
					z := r.Z(zIdx)
					if float64(depth.At(cx+i, cy+j)) < z {
						depth.Set(cx+i, cy+j, float32(z))
						nb.Push(i, j, z)
					}
					// Skip the remainder of this column: it's behind
					// the voxel we just found.
					index += sz - 1 - k
					break
				}
			}
		}
	}
	nb.Flush()
}

// Fill is called once interval analysis has proved View r entirely
// inside the solid: no field evaluation is required, only gradients
// at the topmost Z for every pixel whose depth improves.
func Fill(e eval.Evaluator, r voxels.View, depth *rimage.Depth, norm *rimage.Normal) {
	sx, sy, sz := r.Size()
	cx, cy, _ := r.Corner()
	z := r.Z(sz - 1)

	nb := normbatch.New(e, r, norm)
	for i := 0; i < sx; i++ {
		for j := 0; j < sy; j++ {
			if float64(depth.At(cx+i, cy+j)) < z {
				depth.Set(cx+i, cy+j, float32(z))
				nb.Push(i, j, z)
			}
		}
	}
	nb.Flush()
}
