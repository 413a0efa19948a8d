// Package voxels implements the axis-aligned sample grid that the
// heightfield renderer walks: Voxels owns the per-axis sample
// positions, and View addresses a sub-box of that grid for recursive
// subdivision.
package voxels

import "math"

// Interval is an inclusive lower/upper bound on one axis.
type Interval struct {
	Lo, Hi float64
}

// Voxels is the root sample grid. It is constructed once per render
// call and never mutated afterward.
type Voxels struct {
	// px, py, pz hold monotonically increasing sample-center
	// positions along each axis.
	px, py, pz []float64

	xi, yi, zi Interval
}

// New builds a Voxels grid spanning xi x yi x zi with res samples per
// unit length on each axis. Per-axis sample counts are
// ceil((hi-lo)*res); sample centers are lo + (i+0.5)/res.
func New(xi, yi, zi Interval, res float64) *Voxels {
	return &Voxels{
		px: samplePositions(xi, res),
		py: samplePositions(yi, res),
		pz: samplePositions(zi, res),
		xi: xi, yi: yi, zi: zi,
	}
}

func samplePositions(iv Interval, res float64) []float64 {
	n := int(math.Ceil((iv.Hi - iv.Lo) * res))
	if n < 0 {
		n = 0
	}
	pts := make([]float64, n)
	for i := range pts {
		pts[i] = iv.Lo + (float64(i)+0.5)/res
	}
	return pts
}

// Nx, Ny, Nz return the per-axis sample counts.
func (v *Voxels) Nx() int { return len(v.px) }
func (v *Voxels) Ny() int { return len(v.py) }
func (v *Voxels) Nz() int { return len(v.pz) }

// X, Y, Z return the sample-center position at index i on each axis.
func (v *Voxels) X(i int) float64 { return v.px[i] }
func (v *Voxels) Y(i int) float64 { return v.py[i] }
func (v *Voxels) Z(i int) float64 { return v.pz[i] }

// Bounds returns the grid's overall per-axis intervals.
func (v *Voxels) Bounds() (x, y, z Interval) { return v.xi, v.yi, v.zi }

// View returns a View spanning the entire grid.
func (v *Voxels) View() View {
	return View{
		voxels: v,
		cx:     0, cy: 0, cz: 0,
		sx: len(v.px), sy: len(v.py), sz: len(v.pz),
	}
}

// Axis identifies one of the three grid axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// View is a sub-box of a Voxels grid: a corner index triple, a size
// (element counts), and borrowed access to the parent's sample arrays.
// Views are immutable; Split and SplitXY produce new Views.
type View struct {
	voxels     *Voxels
	cx, cy, cz int
	sx, sy, sz int
}

// Voxels returns the View's count of voxels (sx*sy*sz).
func (r View) Voxels() int { return r.sx * r.sy * r.sz }

// Corner returns the View's origin indices into the parent arrays.
func (r View) Corner() (x, y, z int) { return r.cx, r.cy, r.cz }

// Size returns the View's element counts along each axis.
func (r View) Size() (x, y, z int) { return r.sx, r.sy, r.sz }

// Parent returns the Voxels grid this View was carved from.
func (r View) Parent() *Voxels { return r.voxels }

// X, Y, Z return the sample-center position at local index i within
// the View along each axis.
func (r View) X(i int) float64 { return r.voxels.px[r.cx+i] }
func (r View) Y(i int) float64 { return r.voxels.py[r.cy+i] }
func (r View) Z(i int) float64 { return r.voxels.pz[r.cz+i] }

// Lower and Upper return the inclusive voxel-footprint bounds of the
// sub-box used for interval analysis — not the sample-center extents.
func (r View) Lower() [3]float64 {
	return [3]float64{
		voxelEdge(r.voxels.px, r.voxels.xi, r.cx),
		voxelEdge(r.voxels.py, r.voxels.yi, r.cy),
		voxelEdge(r.voxels.pz, r.voxels.zi, r.cz),
	}
}

func (r View) Upper() [3]float64 {
	return [3]float64{
		voxelEdge(r.voxels.px, r.voxels.xi, r.cx+r.sx),
		voxelEdge(r.voxels.py, r.voxels.yi, r.cy+r.sy),
		voxelEdge(r.voxels.pz, r.voxels.zi, r.cz+r.sz),
	}
}

// voxelEdge returns the coordinate of the voxel boundary at sample
// index idx: the grid's lower bound if idx==0, the grid's upper bound
// if idx==len(pts), otherwise the midpoint between adjacent centers.
func voxelEdge(pts []float64, bounds Interval, idx int) float64 {
	switch {
	case idx <= 0:
		return bounds.Lo
	case idx >= len(pts):
		return bounds.Hi
	default:
		return (pts[idx-1] + pts[idx]) / 2
	}
}

// largestAxis returns the axis of largest extent, tie-breaking X > Y > Z.
func (r View) largestAxis() Axis {
	best := AxisX
	bestSize := r.sx
	if r.sy > bestSize {
		best, bestSize = AxisY, r.sy
	}
	if r.sz > bestSize {
		best, bestSize = AxisZ, r.sz
	}
	return best
}

// Split bisects the View along its axis of largest extent (ties
// broken X > Y > Z). It returns (low, high) such that high holds the
// upper-index half along the chosen axis; the two children partition
// the parent exactly.
func (r View) Split() (low, high View) {
	return r.splitAxis(r.largestAxis())
}

// SplitXY is the directional split variant used to partition work for
// parallelism: it only ever splits along X or Y, preferring whichever
// of the two is larger. It panics if both sx==1 and sy==1.
func (r View) SplitXY() (low, high View) {
	if r.sx <= 1 && r.sy <= 1 {
		panic("voxels: SplitXY called on a View with sx==1 and sy==1")
	}
	axis := AxisX
	if r.sy > r.sx {
		axis = AxisY
	}
	return r.splitAxis(axis)
}

func (r View) splitAxis(axis Axis) (low, high View) {
	low, high = r, r
	switch axis {
	case AxisX:
		half := r.sx / 2
		low.sx = half
		high.cx = r.cx + half
		high.sx = r.sx - half
	case AxisY:
		half := r.sy / 2
		low.sy = half
		high.cy = r.cy + half
		high.sy = r.sy - half
	default: // AxisZ
		half := r.sz / 2
		low.sz = half
		high.cz = r.cz + half
		high.sz = r.sz - half
	}
	return low, high
}
