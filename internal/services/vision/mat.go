package vision

import (
	"fmt"
	"time"

	"surveillance/internal/models"

	"gocv.io/x/gocv"
)

// ToMat copies a frame into a new Mat. The caller closes it.
func ToMat(frame *models.Frame) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("frame is empty")
	}

	var mt gocv.MatType
	switch frame.Channels {
	case 1:
		mt = gocv.MatTypeCV8UC1
	case 3:
		mt = gocv.MatTypeCV8UC3
	case 4:
		mt = gocv.MatTypeCV8UC4
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported channel count %d", frame.Channels)
	}

	pix := make([]byte, frame.Width*frame.Height*frame.Channels)
	copy(pix, frame.Pix)
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, mt, pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to build Mat: %w", err)
	}
	return mat, nil
}

// FromMat copies mat pixels into a frame.
func FromMat(mat gocv.Mat) (*models.Frame, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("mat is empty")
	}
	return &models.Frame{
		Captured: time.Now(),
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
		Pix:      mat.ToBytes(),
	}, nil
}
