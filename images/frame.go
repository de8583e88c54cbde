// Package images provides the dense buffer types the background estimation
// pipeline operates on: interleaved byte frames and per-pixel probability
// maps, plus conversions to and from OpenCV matrices and image.Image.
package images

import "github.com/pkg/errors"

// Frame is a dense, interleaved image buffer: Height rows of Width pixels,
// Channels bytes per pixel, row-major with no padding. Channel order is
// whatever the producer wrote (BGR for frames decoded through gocv); the
// pipeline treats channels independently and never reorders them.
type Frame struct {
	// Height is the number of rows.
	Height int
	// Width is the number of columns.
	Width int
	// Channels is the number of bytes per pixel.
	Channels int
	// Pix holds the pixel data, of length Height*Width*Channels.
	Pix []uint8
}

// NewFrame allocates a zeroed frame of the given shape.
func NewFrame(height, width, channels int) (*Frame, error) {
	if height < 1 || width < 1 || channels < 1 {
		return nil, errors.Errorf("images: invalid frame shape %dx%dx%d", height, width, channels)
	}
	return &Frame{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]uint8, height*width*channels),
	}, nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Height: f.Height, Width: f.Width, Channels: f.Channels, Pix: pix}
}

// CopyFrom overwrites the frame's pixels with src's. The shapes must match.
func (f *Frame) CopyFrom(src *Frame) error {
	if !f.SameShape(src) {
		return errors.Errorf("images: shape mismatch %dx%dx%d vs %dx%dx%d",
			f.Height, f.Width, f.Channels, src.Height, src.Width, src.Channels)
	}
	copy(f.Pix, src.Pix)
	return nil
}

// PixOffset returns the index of the first channel of the pixel at (x, y).
func (f *Frame) PixOffset(x, y int) int {
	return (y*f.Width + x) * f.Channels
}

// SameShape reports whether both frames have identical dimensions and
// channel counts.
func (f *Frame) SameShape(o *Frame) bool {
	return f.Height == o.Height && f.Width == o.Width && f.Channels == o.Channels
}
