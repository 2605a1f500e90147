package vision

import (
	"fmt"
	"image"
	"image/color"

	"surveillance/internal/models"

	"gocv.io/x/gocv"
)

var (
	Red   = color.RGBA{R: 255, A: 255}
	Green = color.RGBA{G: 255, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Painter draws annotations with OpenCV primitives.
type Painter struct{}

func NewPainter() *Painter {
	return &Painter{}
}

// Paint returns a copy of frame with marks drawn on it.
func (p *Painter) Paint(frame *models.Frame, marks []models.Annotation) (*models.Frame, error) {
	if len(marks) == 0 {
		return frame, nil
	}

	mat, err := ToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	for _, m := range marks {
		if err := p.draw(&mat, m); err != nil {
			return nil, err
		}
	}

	out, err := FromMat(mat)
	if err != nil {
		return nil, err
	}
	out.Camera, out.Seq, out.Captured = frame.Camera, frame.Seq, frame.Captured
	return out, nil
}

func (p *Painter) draw(mat *gocv.Mat, m models.Annotation) error {
	switch m.Kind {
	case models.AnnotateBox:
		if err := gocv.Rectangle(mat, m.Rect, m.Color, m.Thickness); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

	case models.AnnotateLabel, models.AnnotateBanner:
		scale := m.Scale
		if scale <= 0 {
			scale = 0.5
		}
		textColor := m.Color
		if m.Filled {
			size := gocv.GetTextSize(m.Text, gocv.FontHersheySimplex, scale, m.Thickness)
			bg := image.Rect(m.At.X, m.At.Y-size.Y-10, m.At.X+size.X, m.At.Y+5)
			if err := gocv.Rectangle(mat, bg, m.Color, -1); err != nil {
				return fmt.Errorf("failed to draw label background: %w", err)
			}
			textColor = White
		}
		if err := gocv.PutText(mat, m.Text, m.At, gocv.FontHersheySimplex, scale, textColor, m.Thickness); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}
	}
	return nil
}
