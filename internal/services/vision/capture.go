package vision

import (
	"fmt"
	"strconv"

	"surveillance/internal/models"
	"surveillance/internal/services/camera"

	"gocv.io/x/gocv"
)

// VideoCapture adapts gocv.VideoCapture to camera.Capture.
type VideoCapture struct {
	source string
	cap    *gocv.VideoCapture
	mat    gocv.Mat
}

// OpenCapture opens a local device when source is an integer, otherwise a
// stream URL or video file.
func OpenCapture(source string) (camera.Capture, error) {
	var (
		cap *gocv.VideoCapture
		err error
	)
	if device, convErr := strconv.Atoi(source); convErr == nil {
		cap, err = gocv.VideoCaptureDevice(device)
	} else {
		cap, err = gocv.OpenVideoCapture(source)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", camera.ErrSourceOpen, source, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("%w: %s is not opened", camera.ErrSourceOpen, source)
	}

	// keep the driver queue short, stale frames are worthless here
	cap.Set(gocv.VideoCaptureBufferSize, 1)

	return &VideoCapture{source: source, cap: cap, mat: gocv.NewMat()}, nil
}

func (v *VideoCapture) Read() (*models.Frame, error) {
	if ok := v.cap.Read(&v.mat); !ok {
		return nil, fmt.Errorf("%w: %s", camera.ErrSourceRead, v.source)
	}
	if v.mat.Empty() {
		return nil, fmt.Errorf("%w: %s returned an empty frame", camera.ErrSourceRead, v.source)
	}
	return FromMat(v.mat)
}

func (v *VideoCapture) Close() error {
	v.mat.Close()
	return v.cap.Close()
}
