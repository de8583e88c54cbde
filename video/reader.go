// Package video holds the I/O collaborators of the pipeline: reading a frame
// sequence, writing the final image, and the optional preview windows. The
// core never depends on this package; frames cross the boundary as plain
// images.Frame buffers.
package video

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/backgen/backgen/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Sequence delivers frames in arrival order. No random access or seeking is
// assumed; Next returns false once the sequence is exhausted.
type Sequence interface {
	Height() int
	Width() int
	// Next returns the next frame, or ok=false at end of sequence.
	Next() (*images.Frame, bool, error)
	Close() error
}

// Open opens the frame sequence at path: a directory is read as numbered
// image files, anything else as a video container.
func Open(path string) (Sequence, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "video: cannot open sequence %q", path)
	}
	if info.IsDir() {
		return OpenImageDir(path)
	}
	return OpenCapture(path)
}

// Capture reads frames from a video container through OpenCV.
type Capture struct {
	cap    *gocv.VideoCapture
	mat    gocv.Mat
	height int
	width  int
}

// OpenCapture opens a video file as a sequence.
func OpenCapture(path string) (*Capture, error) {
	cap, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, errors.Wrapf(err, "video: cannot open %q", path)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, errors.Errorf("video: %q is not a valid sequence", path)
	}
	return &Capture{
		cap:    cap,
		mat:    gocv.NewMat(),
		height: int(cap.Get(gocv.VideoCaptureFrameHeight)),
		width:  int(cap.Get(gocv.VideoCaptureFrameWidth)),
	}, nil
}

func (c *Capture) Height() int { return c.height }
func (c *Capture) Width() int  { return c.width }

// Next decodes the next frame. Decoded frames come out in OpenCV's BGR
// channel order, which the pipeline never needs to know.
func (c *Capture) Next() (*images.Frame, bool, error) {
	if ok := c.cap.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, false, nil
	}
	frame, err := images.FrameFromMat(c.mat)
	if err != nil {
		return nil, false, errors.Wrap(err, "video: decode frame")
	}
	return frame, true, nil
}

func (c *Capture) Close() error {
	c.mat.Close()
	return c.cap.Close()
}

// ImageDir reads a directory of individually encoded frames, ordered by
// file name, as a sequence.
type ImageDir struct {
	paths  []string
	next   int
	height int
	width  int
}

var frameExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
}

// OpenImageDir lists the image files under dir in name order and probes the
// first one for the sequence dimensions.
func OpenImageDir(dir string) (*ImageDir, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "video: read dir %q", dir)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("video: no image files in %q", dir)
	}
	sortFramePaths(paths)

	probe := gocv.IMRead(paths[0], gocv.IMReadColor)
	if probe.Empty() {
		return nil, errors.Errorf("video: cannot decode %q", paths[0])
	}
	defer probe.Close()

	return &ImageDir{
		paths:  paths,
		height: probe.Rows(),
		width:  probe.Cols(),
	}, nil
}

func (d *ImageDir) Height() int { return d.height }
func (d *ImageDir) Width() int  { return d.width }

func (d *ImageDir) Next() (*images.Frame, bool, error) {
	if d.next >= len(d.paths) {
		return nil, false, nil
	}
	path := d.paths[d.next]
	d.next++

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return nil, false, errors.Errorf("video: cannot decode %q", path)
	}
	defer mat.Close()

	frame, err := images.FrameFromMat(mat)
	if err != nil {
		return nil, false, errors.Wrapf(err, "video: decode %q", path)
	}
	return frame, true, nil
}

func (d *ImageDir) Close() error { return nil }

// sortFramePaths orders frame files by their numeric index so that
// frame-2.png precedes frame-10.png regardless of zero padding. Files
// without a trailing number fall back to lexical order after the numbered
// ones, keeping the order deterministic for mixed directories.
func sortFramePaths(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		ni, oki := frameIndex(paths[i])
		nj, okj := frameIndex(paths[j])
		switch {
		case oki && okj:
			if ni != nj {
				return ni < nj
			}
			return paths[i] < paths[j]
		case oki:
			return true
		case okj:
			return false
		default:
			return paths[i] < paths[j]
		}
	})
}

// frameIndex extracts the trailing frame number from a file name like
// frame-10.png or 000042.jpg.
func frameIndex(path string) (int, bool) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	if i == len(base) {
		return 0, false
	}
	n, err := strconv.Atoi(base[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}
