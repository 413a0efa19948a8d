package raster_test

import (
	"math"
	"testing"

	"github.com/chazu/heightfield/internal/evaltest"
	"github.com/chazu/heightfield/pkg/raster"
	"github.com/chazu/heightfield/pkg/rimage"
	"github.com/chazu/heightfield/pkg/voxels"
)

func newGrid(t *testing.T, res float64) *voxels.Voxels {
	t.Helper()
	return voxels.New(
		voxels.Interval{Lo: -2, Hi: 2},
		voxels.Interval{Lo: -2, Hi: 2},
		voxels.Interval{Lo: -2, Hi: 2},
		res,
	)
}

func TestPixelsHalfSpaceDepth(t *testing.T) {
	vox := newGrid(t, 4) // 16^3 grid
	r := vox.View()
	f := evaltest.NewFake(evaltest.HalfSpace(0), vox.Nx()*vox.Ny()*vox.Nz())

	depth := rimage.NewDepth(vox.Nx(), vox.Ny())
	norm := rimage.NewNormal(vox.Nx(), vox.Ny())

	raster.Pixels(f, r, depth, norm)

	// Expect every pixel's depth to be the largest sample z < 0.
	var want float32 = float32(math.Inf(-1))
	for k := 0; k < vox.Nz(); k++ {
		if z := vox.Z(k); z < 0 && float32(z) > want {
			want = float32(z)
		}
	}
	for y := 0; y < vox.Ny(); y++ {
		for x := 0; x < vox.Nx(); x++ {
			if got := depth.At(x, y); got != want {
				t.Fatalf("depth(%d,%d) = %v, want %v", x, y, got, want)
			}
			if norm.At(x, y) != rimage.Pack(0, 0, 1) {
				t.Fatalf("norm(%d,%d) = %#x, want straight-up packed normal", x, y, norm.At(x, y))
			}
		}
	}
}

func TestPixelsEmptyFieldLeavesDepthAtNegInf(t *testing.T) {
	vox := newGrid(t, 2)
	r := vox.View()
	f := evaltest.NewFake(evaltest.Const(1), vox.Nx()*vox.Ny()*vox.Nz())

	depth := rimage.NewDepth(vox.Nx(), vox.Ny())
	norm := rimage.NewNormal(vox.Nx(), vox.Ny())
	raster.Pixels(f, r, depth, norm)

	for _, v := range depth.Px {
		if !math.IsInf(float64(v), -1) {
			t.Fatal("expected every pixel to remain -Inf for f≡1")
		}
	}
	for _, v := range norm.Px {
		if v != 0 {
			t.Fatal("expected every normal to remain 0 for f≡1")
		}
	}
}

func TestPixelsSkipsAlreadyOccludedColumn(t *testing.T) {
	vox := newGrid(t, 4)
	r := vox.View()
	f := evaltest.NewFake(evaltest.HalfSpace(100), vox.Nx()*vox.Ny()*vox.Nz()) // always inside

	depth := rimage.NewDepth(vox.Nx(), vox.Ny())
	norm := rimage.NewNormal(vox.Nx(), vox.Ny())

	// Pre-fill one pixel's depth at the View's top Z so its column
	// is skipped entirely and left undisturbed.
	top := vox.Z(vox.Nz() - 1)
	depth.Set(0, 0, float32(top))

	raster.Pixels(f, r, depth, norm)

	if depth.At(0, 0) != float32(top) {
		t.Fatalf("depth(0,0) changed to %v, want unchanged %v", depth.At(0, 0), top)
	}
	if norm.At(0, 0) != 0 {
		t.Fatal("norm(0,0) should be untouched since the column was skipped")
	}
	// Other pixels should still get filled since f is always inside.
	if depth.At(1, 1) != float32(top) {
		t.Fatalf("depth(1,1) = %v, want %v (field is always inside)", depth.At(1, 1), top)
	}
}

func TestFillFloodsTopZ(t *testing.T) {
	vox := newGrid(t, 2)
	r := vox.View()
	f := evaltest.NewFake(evaltest.Const(-1), vox.Nx()*vox.Ny()*vox.Nz())

	depth := rimage.NewDepth(vox.Nx(), vox.Ny())
	norm := rimage.NewNormal(vox.Nx(), vox.Ny())

	raster.Fill(f, r, depth, norm)

	top := float32(vox.Z(vox.Nz() - 1))
	for y := 0; y < vox.Ny(); y++ {
		for x := 0; x < vox.Nx(); x++ {
			if depth.At(x, y) != top {
				t.Fatalf("depth(%d,%d) = %v, want %v", x, y, depth.At(x, y), top)
			}
			if norm.At(x, y) == 0 {
				t.Fatalf("norm(%d,%d) should be non-zero after Fill", x, y)
			}
		}
	}
}

func TestFillDoesNotLowerExistingDepth(t *testing.T) {
	vox := newGrid(t, 2)
	r := vox.View()
	f := evaltest.NewFake(evaltest.Const(-1), vox.Nx()*vox.Ny()*vox.Nz())

	depth := rimage.NewDepth(vox.Nx(), vox.Ny())
	norm := rimage.NewNormal(vox.Nx(), vox.Ny())

	higher := float32(1000)
	depth.Set(0, 0, higher)
	raster.Fill(f, r, depth, norm)

	if depth.At(0, 0) != higher {
		t.Fatalf("depth(0,0) = %v, want unchanged %v", depth.At(0, 0), higher)
	}
}
