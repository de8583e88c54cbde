package images

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFrameValidatesShape(t *testing.T) {
	_, err := NewFrame(0, 4, 3)
	require.Error(t, err)
	_, err = NewFrame(4, -1, 3)
	require.Error(t, err)
	_, err = NewFrame(4, 4, 0)
	require.Error(t, err)

	f, err := NewFrame(4, 6, 3)
	require.NoError(t, err)
	require.Len(t, f.Pix, 4*6*3)
}

func TestFrameCloneIsIndependent(t *testing.T) {
	f, err := NewFrame(2, 2, 3)
	require.NoError(t, err)
	f.Pix[0] = 42

	c := f.Clone()
	require.Equal(t, f.Pix, c.Pix)
	c.Pix[0] = 7
	require.Equal(t, uint8(42), f.Pix[0])
}

func TestFramePixOffsetRowMajor(t *testing.T) {
	f, err := NewFrame(3, 5, 3)
	require.NoError(t, err)
	require.Equal(t, 0, f.PixOffset(0, 0))
	require.Equal(t, 3, f.PixOffset(1, 0))
	require.Equal(t, 5*3, f.PixOffset(0, 1))
	require.Equal(t, (2*5+4)*3, f.PixOffset(4, 2))
}

func TestCopyFromRejectsShapeMismatch(t *testing.T) {
	a, err := NewFrame(2, 2, 3)
	require.NoError(t, err)
	b, err := NewFrame(2, 3, 3)
	require.NoError(t, err)
	require.Error(t, a.CopyFrom(b))

	c, err := NewFrame(2, 2, 3)
	require.NoError(t, err)
	c.Pix[5] = 99
	require.NoError(t, a.CopyFrom(c))
	require.Equal(t, uint8(99), a.Pix[5])
}

func TestProbabilityMapMax(t *testing.T) {
	m, err := NewProbabilityMap(2, 2)
	require.NoError(t, err)
	require.Equal(t, int64(0), m.Max())
	m.Pix[2] = 77
	m.Pix[3] = 5
	require.Equal(t, int64(77), m.Max())
}

func TestImageRoundTripPreservesChannels(t *testing.T) {
	f, err := NewFrame(3, 4, 3)
	require.NoError(t, err)
	for i := range f.Pix {
		f.Pix[i] = uint8((i * 53) % 256)
	}

	back, err := FrameFromImage(f.ToImage(), 3)
	require.NoError(t, err)
	require.Equal(t, f.Pix, back.Pix)
}

func TestDownscaleHalvesDimensions(t *testing.T) {
	f, err := NewFrame(8, 12, 3)
	require.NoError(t, err)
	for i := range f.Pix {
		f.Pix[i] = 128
	}

	small, err := Downscale(f, 2)
	require.NoError(t, err)
	require.Equal(t, 4, small.Height)
	require.Equal(t, 6, small.Width)
	require.Equal(t, 3, small.Channels)
	// A constant image stays constant under resampling.
	for i, v := range small.Pix {
		require.Equalf(t, uint8(128), v, "byte %d", i)
	}
}

func TestDownscaleFactorOneClones(t *testing.T) {
	f, err := NewFrame(2, 2, 1)
	require.NoError(t, err)
	f.Pix[0] = 9

	c, err := Downscale(f, 1)
	require.NoError(t, err)
	require.Equal(t, f.Pix, c.Pix)
	c.Pix[0] = 1
	require.Equal(t, uint8(9), f.Pix[0])

	_, err = Downscale(f, 0)
	require.Error(t, err)
}
