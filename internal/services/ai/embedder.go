package ai

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"surveillance/internal/config"
	"surveillance/internal/logger"
	"surveillance/internal/models"
	"surveillance/internal/services/vision"

	"gocv.io/x/gocv"
)

// reidInput is the width x height a person ReID network expects.
var reidInput = image.Pt(128, 256)

// DNNEmbedder produces appearance vectors from an ONNX re-identification
// network.
type DNNEmbedder struct {
	mu        sync.Mutex
	net       gocv.Net
	dimension int
	logger    *logger.Logger
}

func NewDNNEmbedder(cfg *config.Config, log *logger.Logger) (*DNNEmbedder, error) {
	if _, err := os.Stat(cfg.EmbedderModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("embedder model not found: %s", cfg.EmbedderModelPath)
	}

	net := gocv.ReadNet(cfg.EmbedderModelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("failed to load embedder from %s", cfg.EmbedderModelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set embedder backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set embedder target: %w", err)
	}

	log.Info("Embedding network initialized (%d dims)", cfg.EmbeddingSize)
	return &DNNEmbedder{net: net, dimension: cfg.EmbeddingSize, logger: log}, nil
}

func (e *DNNEmbedder) Dimension() int {
	return e.dimension
}

func (e *DNNEmbedder) Embed(ctx context.Context, crop *models.Frame) ([]float32, error) {
	if crop.Empty() {
		return make([]float32, e.dimension), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := vision.ToMat(crop)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, reidInput, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	e.mu.Lock()
	e.net.SetInput(blob, "")
	output := e.net.Forward("")
	e.mu.Unlock()
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: reading embedding: %v", ErrInference, err)
	}
	if len(data) != e.dimension {
		return nil, fmt.Errorf("%w: embedding has %d values, want %d", ErrInference, len(data), e.dimension)
	}

	vec := make([]float32, len(data))
	copy(vec, data)
	return vec, nil
}

func (e *DNNEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.net.Close()
}
