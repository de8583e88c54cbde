package images

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FrameFromMat copies an 8-bit OpenCV matrix into a Frame. The channel order
// of the Mat is preserved (BGR for decoded video frames).
func FrameFromMat(mat gocv.Mat) (*Frame, error) {
	if mat.Empty() {
		return nil, errors.New("images: empty mat")
	}
	data, err := mat.DataPtrUint8()
	if err != nil {
		return nil, errors.Wrap(err, "images: mat is not 8-bit contiguous")
	}
	f, err := NewFrame(mat.Rows(), mat.Cols(), mat.Channels())
	if err != nil {
		return nil, err
	}
	copy(f.Pix, data)
	return f, nil
}

// ToMat copies the frame into a new OpenCV matrix. The caller owns the
// returned Mat and must Close it. Only 1-, 3- and 4-channel frames are
// supported, matching the 8-bit Mat types OpenCV can encode.
func (f *Frame) ToMat() (gocv.Mat, error) {
	var matType gocv.MatType
	switch f.Channels {
	case 1:
		matType = gocv.MatTypeCV8UC1
	case 3:
		matType = gocv.MatTypeCV8UC3
	case 4:
		matType = gocv.MatTypeCV8UC4
	default:
		return gocv.Mat{}, errors.Errorf("images: no 8-bit mat type for %d channels", f.Channels)
	}
	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, matType, f.Pix)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "images: mat from bytes")
	}
	return mat, nil
}

// ToImage converts the frame to an image.NRGBA. Channel 0 maps to R,
// channel 1 to G, channel 2 to B; single-channel frames replicate into all
// three. The mapping is its own inverse through FrameFromImage, so a
// round-trip preserves per-channel data regardless of the frame's actual
// channel order.
func (f *Frame) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			off := f.PixOffset(x, y)
			var c color.NRGBA
			c.A = 0xff
			switch f.Channels {
			case 1:
				v := f.Pix[off]
				c.R, c.G, c.B = v, v, v
			case 2:
				c.R = f.Pix[off]
				c.G = f.Pix[off+1]
			default:
				c.R = f.Pix[off]
				c.G = f.Pix[off+1]
				c.B = f.Pix[off+2]
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// FrameFromImage converts an image.Image into a frame with the given channel
// count, inverting the mapping used by ToImage.
func FrameFromImage(img image.Image, channels int) (*Frame, error) {
	b := img.Bounds()
	f, err := NewFrame(b.Dy(), b.Dx(), channels)
	if err != nil {
		return nil, err
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			off := f.PixOffset(x, y)
			switch channels {
			case 1:
				f.Pix[off] = uint8(r >> 8)
			case 2:
				f.Pix[off] = uint8(r >> 8)
				f.Pix[off+1] = uint8(g >> 8)
			default:
				f.Pix[off] = uint8(r >> 8)
				f.Pix[off+1] = uint8(g >> 8)
				f.Pix[off+2] = uint8(bl >> 8)
				for c := 3; c < channels; c++ {
					f.Pix[off+c] = 0xff
				}
			}
		}
	}
	return f, nil
}
