// Command heightfield compiles a scene description into a CSG tree
// and rasterizes it into a packed depth/normal heightmap, exactly the
// batch entry point the original heightmap.cpp's render() function
// served in the source this renderer was distilled from.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/chazu/heightfield/pkg/dsl"
	"github.com/chazu/heightfield/pkg/eval"
	"github.com/chazu/heightfield/pkg/eval/fexpr"
	"github.com/chazu/heightfield/pkg/render"
	"github.com/chazu/heightfield/pkg/rimage"
	"github.com/chazu/heightfield/pkg/voxels"
)

func main() {
	var (
		scenePath  = flag.String("scene", "", "path to a scene description file (required)")
		lo         = flag.Float64("lo", -1, "lower bound of the cubic render volume on every axis")
		hi         = flag.Float64("hi", 1, "upper bound of the cubic render volume on every axis")
		res        = flag.Float64("res", 128, "samples per unit length on every axis")
		workers    = flag.Int("workers", runtime.NumCPU(), "number of concurrent render workers")
		capacity   = flag.Int("capacity", 4096, "per-worker batch evaluation capacity")
		normalOut  = flag.String("out-normal", "normal.png", "output path for the packed-normal PNG")
		depthOut   = flag.String("out-depth", "depth.bin", "output path for the raw float32 depth buffer")
	)
	flag.Parse()

	if err := run(*scenePath, *lo, *hi, *res, *workers, *capacity, *normalOut, *depthOut); err != nil {
		log.Fatalf("heightfield: %v", err)
	}
}

func run(scenePath string, lo, hi, res float64, workers, capacity int, normalOut, depthOut string) error {
	if scenePath == "" {
		return fmt.Errorf("-scene is required")
	}
	src, err := os.ReadFile(scenePath)
	if err != nil {
		return fmt.Errorf("reading scene: %w", err)
	}

	tree, evalErrs, err := dsl.NewEngine().Evaluate(string(src))
	if err != nil {
		return fmt.Errorf("evaluating scene: %w", err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			log.Printf("scene error: %v", e)
		}
		return fmt.Errorf("scene evaluation failed with %d error(s)", len(evalErrs))
	}

	if workers < 1 {
		workers = 1
	}
	iv := voxels.Interval{Lo: lo, Hi: hi}
	vox := voxels.New(iv, iv, iv, res)
	log.Printf("rendering %dx%dx%d grid with %d workers", vox.Nx(), vox.Ny(), vox.Nz(), workers)

	evaluators := make([]eval.Evaluator, workers)
	for i := range evaluators {
		evaluators[i] = fexpr.NewEvaluator(tree, capacity)
	}

	abort := new(atomic.Bool)
	depth, norm := render.New(evaluators, vox, abort, eval.Identity())

	if err := writeDepth(depthOut, depth); err != nil {
		return fmt.Errorf("writing depth: %w", err)
	}
	if err := writeNormalPNG(normalOut, norm); err != nil {
		return fmt.Errorf("writing normal image: %w", err)
	}
	return nil
}

// writeDepth writes the depth buffer as little-endian float32 values
// in row-major order, preceded by a width/height uint32 header.
func writeDepth(path string, d *rimage.Depth) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(d.W))
	binary.LittleEndian.PutUint32(header[4:8], uint32(d.H))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	buf := make([]byte, 4)
	for _, v := range d.Px {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeNormalPNG unpacks the renderer's [nx,ny,nz,alpha] byte lanes
// into an NRGBA image and encodes it as a PNG.
func writeNormalPNG(path string, n *rimage.Normal) error {
	img := image.NewNRGBA(image.Rect(0, 0, n.W, n.H))
	for y := 0; y < n.H; y++ {
		for x := 0; x < n.W; x++ {
			px := n.At(x, y)
			i := img.PixOffset(x, y)
			img.Pix[i+0] = byte(px)
			img.Pix[i+1] = byte(px >> 8)
			img.Pix[i+2] = byte(px >> 16)
			img.Pix[i+3] = byte(px >> 24)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
