package services

import (
	"context"
	"encoding/json"

	"surveillance/internal/logger"
	"surveillance/internal/models"
	"surveillance/internal/services/camera"
	"surveillance/internal/services/engine"
)

// FrameSource hands out the latest frame of each camera.
type FrameSource interface {
	GetFrame(camera int) (*models.Frame, bool)
	HasCamera(camera int) bool
	Status() []camera.CameraStatus
}

type Processor interface {
	Process(ctx context.Context, frame *models.Frame) engine.Result
}

type AlertLedger interface {
	AppendAll(alerts []models.Alert)
	ListNewestFirst() []models.Alert
}

type TargetRegistry interface {
	Register(ctx context.Context, image []byte) error
	Current() (*models.TargetProfile, bool)
	Clear()
}

type Broadcaster interface {
	Broadcast(message []byte) bool
}

// Encoder turns an annotated frame into bytes for viewers.
type Encoder func(frame *models.Frame) ([]byte, error)

// Delivery is one annotated frame ready for a viewer.
type Delivery struct {
	Camera int
	Seq    uint64
	Image  []byte
	Alerts []models.Alert
}

// Pipeline connects cameras, the detection engine, the alert ledger and the
// alert feed.
type Pipeline struct {
	cameras FrameSource
	engine  Processor
	ledger  AlertLedger
	targets TargetRegistry
	hub     Broadcaster
	encode  Encoder
	logger  *logger.Logger
}

func NewPipeline(cameras FrameSource, engine Processor, ledger AlertLedger, targets TargetRegistry, hub Broadcaster, encode Encoder, logger *logger.Logger) *Pipeline {
	return &Pipeline{
		cameras: cameras,
		engine:  engine,
		ledger:  ledger,
		targets: targets,
		hub:     hub,
		encode:  encode,
		logger:  logger,
	}
}

// Next processes the latest frame of camera. It reports false, without
// blocking, when no new frame is buffered or the result could not be encoded.
func (p *Pipeline) Next(ctx context.Context, camera int) (Delivery, bool) {
	frame, ok := p.cameras.GetFrame(camera)
	if !ok {
		return Delivery{}, false
	}

	result := p.engine.Process(ctx, frame)
	if len(result.Alerts) > 0 {
		p.ledger.AppendAll(result.Alerts)
		p.publish(result.Alerts)
	}

	image, err := p.encode(result.Frame)
	if err != nil {
		p.logger.Error("Camera %d: failed to encode frame %d: %v", camera, frame.Seq, err)
		return Delivery{}, false
	}

	return Delivery{
		Camera: camera,
		Seq:    frame.Seq,
		Image:  image,
		Alerts: result.Alerts,
	}, true
}

func (p *Pipeline) publish(alerts []models.Alert) {
	if p.hub == nil {
		return
	}
	for _, a := range alerts {
		msg, err := json.Marshal(a)
		if err != nil {
			p.logger.Error("Failed to marshal alert %s: %v", a.ID, err)
			continue
		}
		p.hub.Broadcast(msg)
	}
}

func (p *Pipeline) HasCamera(camera int) bool {
	return p.cameras.HasCamera(camera)
}

func (p *Pipeline) Cameras() []camera.CameraStatus {
	return p.cameras.Status()
}

// Alerts returns the alert history, newest first.
func (p *Pipeline) Alerts() []models.Alert {
	return p.ledger.ListNewestFirst()
}

func (p *Pipeline) RegisterTarget(ctx context.Context, image []byte) error {
	return p.targets.Register(ctx, image)
}

func (p *Pipeline) ClearTarget() {
	p.targets.Clear()
}

// TargetActive reports whether a target is registered.
func (p *Pipeline) TargetActive() bool {
	_, ok := p.targets.Current()
	return ok
}
