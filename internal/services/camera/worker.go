package camera

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"surveillance/internal/logger"
	"surveillance/internal/models"
)

var (
	// ErrSourceOpen means a camera source could not be opened. The source is skipped.
	ErrSourceOpen = errors.New("camera source open failed")
	// ErrSourceRead is a transient read failure. The worker retries it forever.
	ErrSourceRead = errors.New("camera source read failed")
)

// DefaultRetryInterval is the wait between failed reads.
const DefaultRetryInterval = 100 * time.Millisecond

// Capture is an opened physical source. Read blocks until a frame is
// available or the source fails.
type Capture interface {
	Read() (*models.Frame, error)
	Close() error
}

// Opener opens a capture from a source descriptor.
type Opener func(source string) (Capture, error)

type State int32

const (
	StateOpening State = iota
	StateStreaming
	StateDegraded
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateStreaming:
		return "streaming"
	case StateDegraded:
		return "degraded"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// CaptureWorker owns one capture handle and feeds its FrameSlot.
type CaptureWorker struct {
	camera  int
	source  string
	capture Capture
	slot    *FrameSlot
	retry   time.Duration
	logger  *logger.Logger

	state      atomic.Int32
	seq        uint64
	readErrors atomic.Uint64
}

func newCaptureWorker(camera int, source string, capture Capture, slot *FrameSlot, retry time.Duration, log *logger.Logger) *CaptureWorker {
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	w := &CaptureWorker{
		camera:  camera,
		source:  source,
		capture: capture,
		slot:    slot,
		retry:   retry,
		logger:  log,
	}
	w.state.Store(int32(StateOpening))
	return w
}

func (w *CaptureWorker) State() State {
	return State(w.state.Load())
}

// run reads until stop is closed. Read failures never end the loop; the
// capture is released before run returns.
func (w *CaptureWorker) run(stop <-chan struct{}) {
	defer func() {
		if err := w.capture.Close(); err != nil {
			w.logger.Warning("Camera %d: error releasing capture: %v", w.camera, err)
		}
		w.state.Store(int32(StateClosed))
		w.logger.Info("📷 Camera %d: capture worker stopped", w.camera)
	}()

	w.logger.Info("📷 Camera %d: capture worker started (%s)", w.camera, w.source)

	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, err := w.capture.Read()
		if err == nil && frame.Empty() {
			err = fmt.Errorf("%w: empty frame", ErrSourceRead)
		}
		if err != nil {
			if w.State() != StateDegraded {
				w.logger.Warning("Camera %d: read failed, retrying every %s: %v", w.camera, w.retry, err)
			}
			w.state.Store(int32(StateDegraded))
			w.readErrors.Add(1)

			select {
			case <-stop:
				return
			case <-time.After(w.retry):
			}
			continue
		}

		if w.State() == StateDegraded {
			w.logger.Info("Camera %d: stream recovered", w.camera)
		}
		w.state.Store(int32(StateStreaming))

		w.seq++
		frame.Camera = w.camera
		frame.Seq = w.seq
		if frame.Captured.IsZero() {
			frame.Captured = time.Now()
		}
		w.slot.Push(frame)
	}
}
