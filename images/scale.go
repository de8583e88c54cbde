package images

import (
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Downscale returns a copy of f reduced by the given integer factor using
// Lanczos3 resampling. A factor of 1 returns a plain clone. Dimensions are
// rounded down but never below one pixel. This is a speed knob for large
// inputs; it runs before the pipeline ever sees a frame, so the estimate is
// simply computed at the reduced resolution.
func Downscale(f *Frame, factor int) (*Frame, error) {
	if factor < 1 {
		return nil, errors.Errorf("images: invalid downscale factor %d", factor)
	}
	if factor == 1 {
		return f.Clone(), nil
	}
	w := f.Width / factor
	h := f.Height / factor
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	scaled := resize.Resize(uint(w), uint(h), f.ToImage(), resize.Lanczos3)
	return FrameFromImage(scaled, f.Channels)
}
