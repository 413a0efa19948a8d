package rimage

import (
	"math"
	"testing"
)

func TestNewDepthFilledWithNegInf(t *testing.T) {
	d := NewDepth(4, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if !math.IsInf(float64(d.At(x, y)), -1) {
				t.Fatalf("At(%d,%d) = %v, want -Inf", x, y, d.At(x, y))
			}
		}
	}
}

func TestDepthSetAt(t *testing.T) {
	d := NewDepth(2, 2)
	d.Set(1, 0, 5)
	if d.At(1, 0) != 5 {
		t.Errorf("At(1,0) = %v, want 5", d.At(1, 0))
	}
	if d.At(0, 0) != float32(math.Inf(-1)) {
		t.Errorf("At(0,0) should remain -Inf")
	}
}

func TestNewNormalFilledWithZero(t *testing.T) {
	n := NewNormal(3, 3)
	for _, v := range n.Px {
		if v != 0 {
			t.Fatal("expected all-zero normal image")
		}
	}
}

func TestPackStraightUp(t *testing.T) {
	got := Pack(0, 0, 1)
	// nx=ny=127 (255*0.5 truncated), nz=255, alpha=0xFF.
	want := uint32(0xFF)<<24 | uint32(255)<<16 | uint32(127)<<8 | uint32(127)
	if got != want {
		t.Errorf("Pack(0,0,1) = %#x, want %#x", got, want)
	}
}

func TestPackClampsOutOfRange(t *testing.T) {
	got := Pack(-10, 10, 0)
	nx := got & 0xFF
	ny := (got >> 8) & 0xFF
	if nx != 0 {
		t.Errorf("nx = %d, want clamped to 0", nx)
	}
	if ny != 255 {
		t.Errorf("ny = %d, want clamped to 255", ny)
	}
}

func TestSkySentinelValue(t *testing.T) {
	if SkySentinel != 0xFFFF7F7F {
		t.Errorf("SkySentinel = %#x, want 0xFFFF7F7F", SkySentinel)
	}
}
