package images

import "github.com/pkg/errors"

// ProbabilityMap is a single-channel motion evidence buffer with the same
// spatial dimensions as a frame, one score per pixel, row-major. Scores are
// int64 so a K×K box sum of per-pixel L1 differences can never overflow.
type ProbabilityMap struct {
	// Height is the number of rows.
	Height int
	// Width is the number of columns.
	Width int
	// Pix holds one score per pixel, of length Height*Width.
	Pix []int64
}

// NewProbabilityMap allocates a zeroed map of the given shape.
func NewProbabilityMap(height, width int) (*ProbabilityMap, error) {
	if height < 1 || width < 1 {
		return nil, errors.Errorf("images: invalid map shape %dx%d", height, width)
	}
	return &ProbabilityMap{
		Height: height,
		Width:  width,
		Pix:    make([]int64, height*width),
	}, nil
}

// Offset returns the index of the score for the pixel at (x, y).
func (m *ProbabilityMap) Offset(x, y int) int {
	return y*m.Width + x
}

// SameShape reports whether both maps have identical dimensions.
func (m *ProbabilityMap) SameShape(o *ProbabilityMap) bool {
	return m.Height == o.Height && m.Width == o.Width
}

// MatchesFrame reports whether the map has the same spatial dimensions as f.
func (m *ProbabilityMap) MatchesFrame(f *Frame) bool {
	return m.Height == f.Height && m.Width == f.Width
}

// Max returns the largest score in the map, or zero for an all-zero map.
// Used to normalize maps for display.
func (m *ProbabilityMap) Max() int64 {
	var max int64
	for _, v := range m.Pix {
		if v > max {
			max = v
		}
	}
	return max
}
