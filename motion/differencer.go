// Package motion turns consecutive frames into per-pixel motion evidence.
//
// The Differencer compares each incoming frame against the previous one and
// scores every pixel with the L1 distance summed across channels: higher
// scores mean stronger evidence that the pixel belongs to moving foreground.
package motion

import "github.com/backgen/backgen/images"

// Differencer computes a raw motion probability map from consecutive frames.
// It is stateful only in that it remembers the previously processed frame.
// Not safe for concurrent use; the pipeline feeds it frames in arrival order.
type Differencer struct {
	prev        *images.Frame
	initialized bool
}

// NewDifferencer returns a differencer with no prior frame. The first call
// to Process seeds the state and produces no usable map.
func NewDifferencer() *Differencer {
	return &Differencer{}
}

// Primed reports whether a previous frame has been seeded, i.e. whether the
// next Process call will produce a usable map.
func (d *Differencer) Primed() bool {
	return d.initialized
}

// Process scores frame against the previously processed frame, writing one
// score per pixel into dst. The score is the sum over channels of absolute
// differences, so a 3-channel frame scores in [0, 765].
//
// The first call only seeds the internal state: dst is left untouched and
// Process reports false. Every later call overwrites dst entirely and
// reports true. frame and dst must share spatial dimensions with the seeded
// state; a mismatch panics, as it can only be a programming error.
func (d *Differencer) Process(frame *images.Frame, dst *images.ProbabilityMap) bool {
	if !dst.MatchesFrame(frame) {
		panic("motion: probability map does not match frame dimensions")
	}
	if !d.initialized {
		d.prev = frame.Clone()
		d.initialized = true
		return false
	}
	if !d.prev.SameShape(frame) {
		panic("motion: frame shape changed mid-sequence")
	}

	ch := frame.Channels
	for i, off := 0, 0; i < len(dst.Pix); i, off = i+1, off+ch {
		var score int64
		for c := 0; c < ch; c++ {
			diff := int64(frame.Pix[off+c]) - int64(d.prev.Pix[off+c])
			if diff < 0 {
				diff = -diff
			}
			score += diff
		}
		dst.Pix[i] = score
	}

	// Reuse the previous frame's buffer rather than allocating per call.
	copy(d.prev.Pix, frame.Pix)
	return true
}
