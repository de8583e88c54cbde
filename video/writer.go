package video

import (
	"github.com/backgen/backgen/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// WriteImage encodes the frame to path; the format follows the file
// extension, as OpenCV's imwrite does.
func WriteImage(path string, frame *images.Frame) error {
	mat, err := frame.ToMat()
	if err != nil {
		return err
	}
	defer mat.Close()

	if ok := gocv.IMWrite(path, mat); !ok {
		return errors.Errorf("video: cannot write %q", path)
	}
	return nil
}
