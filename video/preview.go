package video

import (
	"github.com/backgen/backgen/images"
	"gocv.io/x/gocv"
)

// Preview shows named images in OpenCV windows while the pipeline runs. It
// is purely observational: nothing it displays feeds back into the
// estimate. One window per name, created lazily.
type Preview struct {
	windows map[string]*gocv.Window
	// pump is any open window; WaitKey is process-global in OpenCV, so a
	// single call services every window.
	pump *gocv.Window
}

// NewPreview returns an empty preview surface.
func NewPreview() *Preview {
	return &Preview{windows: make(map[string]*gocv.Window)}
}

// ShowFrame displays a frame in the window with the given name.
func (p *Preview) ShowFrame(name string, frame *images.Frame) error {
	mat, err := frame.ToMat()
	if err != nil {
		return err
	}
	defer mat.Close()
	p.window(name).IMShow(mat)
	return nil
}

// ShowMap displays a probability map, scaled so the largest score maps to
// white. Display-only; the map itself is untouched.
func (p *Preview) ShowMap(name string, m *images.ProbabilityMap) error {
	frame, err := images.NewFrame(m.Height, m.Width, 1)
	if err != nil {
		return err
	}
	if max := m.Max(); max > 0 {
		for i, v := range m.Pix {
			frame.Pix[i] = uint8(v * 255 / max)
		}
	}
	return p.ShowFrame(name, frame)
}

// Wait pumps the UI event loop for up to ms milliseconds. Zero blocks until
// a key is pressed. A no-op before the first image is shown.
func (p *Preview) Wait(ms int) {
	if p.pump != nil {
		p.pump.WaitKey(ms)
	}
}

// Close tears down all windows.
func (p *Preview) Close() error {
	var firstErr error
	for _, w := range p.windows {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.windows = make(map[string]*gocv.Window)
	p.pump = nil
	return firstErr
}

func (p *Preview) window(name string) *gocv.Window {
	w, ok := p.windows[name]
	if !ok {
		w = gocv.NewWindow(name)
		p.windows[name] = w
		p.pump = w
	}
	return w
}
