package vision

import (
	"fmt"

	"surveillance/internal/models"

	"gocv.io/x/gocv"
)

// EncodeJPEG encodes a frame as JPEG.
func EncodeJPEG(frame *models.Frame) ([]byte, error) {
	mat, err := ToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}

// DecodeImage decodes any image format OpenCV understands into a BGR frame.
func DecodeImage(data []byte) (*models.Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty")
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}
	return FromMat(mat)
}
