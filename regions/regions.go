// Package regions partitions the image plane into the disjoint units the
// history buffers aggregate over. At the finest granularity every region is
// a single pixel; the types are rectangle-based so coarser patch grids slot
// in without touching the rest of the pipeline.
package regions

import (
	"image"

	"github.com/pkg/errors"
)

// Region is a disjoint rectangular subset of the pixel grid, identified by
// its position in the partition order.
type Region struct {
	// Index is the region's position in the row-major partition order.
	Index int
	// Bounds covers the pixel coordinates the region owns. At pixel
	// granularity this is a 1×1 rectangle.
	Bounds image.Rectangle
}

// Area returns the number of pixels the region covers.
func (r Region) Area() int {
	return r.Bounds.Dx() * r.Bounds.Dy()
}

// Partition splits a height×width pixel grid into single-pixel regions in
// row-major order. The regions are pairwise disjoint and together cover the
// whole grid. Deterministic for a given shape.
func Partition(height, width int) ([]Region, error) {
	if height < 1 || width < 1 {
		return nil, errors.Errorf("regions: invalid dimensions %dx%d", height, width)
	}
	regs := make([]Region, 0, height*width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			regs = append(regs, Region{
				Index:  len(regs),
				Bounds: image.Rect(x, y, x+1, y+1),
			})
		}
	}
	return regs, nil
}
