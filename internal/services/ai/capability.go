package ai

import (
	"context"
	"errors"
	"fmt"

	"surveillance/internal/models"
)

// ErrInference marks a detector or embedder failure for a single frame.
var ErrInference = errors.New("inference failed")

// Detector finds and tracks objects. Track ids must persist across calls for
// the same camera while the object stays visible.
type Detector interface {
	DetectAndTrack(ctx context.Context, frame *models.Frame, classes []int, confidenceFloor, iouFloor float64) ([]models.Detection, error)
	// ClassNames maps class ids to human readable names.
	ClassNames() map[int]string
}

// Embedder turns an image crop into a fixed length appearance vector. An
// empty crop yields a zero vector, not an error.
type Embedder interface {
	Embed(ctx context.Context, crop *models.Frame) ([]float32, error)
	Dimension() int
}

// UnavailableEmbedder stands in when no embedding model could be loaded.
// Every call fails with ErrInference, so target matching is skipped and
// registration is refused.
type UnavailableEmbedder struct {
	Reason error
}

func (u UnavailableEmbedder) Embed(ctx context.Context, crop *models.Frame) ([]float32, error) {
	return nil, fmt.Errorf("%w: embedder unavailable: %v", ErrInference, u.Reason)
}

func (u UnavailableEmbedder) Dimension() int { return 0 }
