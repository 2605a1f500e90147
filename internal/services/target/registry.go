package target

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"surveillance/internal/logger"
	"surveillance/internal/models"
	"surveillance/internal/services/ai"
)

var (
	// ErrDecode means the uploaded bytes are not an image.
	ErrDecode = errors.New("target image could not be decoded")
	// ErrEmbed means the embedder failed on the uploaded image.
	ErrEmbed = errors.New("target image could not be embedded")
)

// Decoder turns encoded image bytes into a frame.
type Decoder func(data []byte) (*models.Frame, error)

// Registry holds at most one target profile. Readers always observe a
// complete profile or none.
type Registry struct {
	decode    Decoder
	embedder  ai.Embedder
	threshold float64
	logger    *logger.Logger

	current atomic.Pointer[models.TargetProfile]
}

func NewRegistry(decode Decoder, embedder ai.Embedder, threshold float64, log *logger.Logger) *Registry {
	return &Registry{
		decode:    decode,
		embedder:  embedder,
		threshold: threshold,
		logger:    log,
	}
}

// Register embeds the whole image and replaces the current profile. On any
// failure the previous profile stays in place.
func (r *Registry) Register(ctx context.Context, image []byte) error {
	frame, err := r.decode(image)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if frame.Empty() {
		return fmt.Errorf("%w: image has no pixels", ErrDecode)
	}

	embedding, err := r.embedder.Embed(ctx, frame)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmbed, err)
	}

	profile := &models.TargetProfile{
		Embedding:  embedding,
		Threshold:  r.threshold,
		Registered: time.Now(),
	}
	r.current.Store(profile)
	r.logger.Info("🎯 Target registered (%dx%d image, %d dims)", frame.Width, frame.Height, len(embedding))
	return nil
}

// Current returns the installed profile. The returned value is never mutated.
func (r *Registry) Current() (*models.TargetProfile, bool) {
	p := r.current.Load()
	return p, p != nil
}

// Clear drops the current profile.
func (r *Registry) Clear() {
	if r.current.Swap(nil) != nil {
		r.logger.Info("🎯 Target cleared")
	}
}
