package camera

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"surveillance/internal/logger"
	"surveillance/internal/models"
)

type Options struct {
	RetryInterval time.Duration
}

// CameraStatus is a reporting view of one camera.
type CameraStatus struct {
	Camera     int    `json:"camera"`
	Source     string `json:"source"`
	State      string `json:"state"`
	Pushed     uint64 `json:"frames_pushed"`
	Dropped    uint64 `json:"frames_dropped"`
	ReadErrors uint64 `json:"read_errors"`
}

// Manager owns the capture workers and their slots.
type Manager struct {
	opener Opener
	opts   Options
	logger *logger.Logger

	mu      sync.RWMutex
	workers map[int]*CaptureWorker
	slots   map[int]*FrameSlot
	stopped bool

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewManager(opener Opener, opts Options, log *logger.Logger) *Manager {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	return &Manager{
		opener:  opener,
		opts:    opts,
		logger:  log,
		workers: make(map[int]*CaptureWorker),
		slots:   make(map[int]*FrameSlot),
		stop:    make(chan struct{}),
	}
}

// Open opens every source and starts one worker per opened source. The camera
// id is the source's position in sources. Sources that fail to open are
// skipped; an error is returned only when none opened.
func (m *Manager) Open(sources []string) error {
	opened := 0
	for id, source := range sources {
		if m.isStopped() {
			break
		}

		capture, err := m.opener(source)
		if err != nil {
			m.logger.Warning("Camera %d: error opening video source %s: %v", id, source, err)
			continue
		}

		if !m.start(id, source, capture) {
			// shutdown raced with open, nobody will run this handle
			_ = capture.Close()
			break
		}
		opened++
	}

	if opened == 0 && len(sources) > 0 && !m.isStopped() {
		return fmt.Errorf("%w: none of %d sources could be opened", ErrSourceOpen, len(sources))
	}
	return nil
}

func (m *Manager) start(id int, source string, capture Capture) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return false
	}
	if _, exists := m.workers[id]; exists {
		m.logger.Warning("Camera %d already running, closing duplicate source %s", id, source)
		_ = capture.Close()
		return true
	}

	slot := NewFrameSlot(DefaultSlotCapacity)
	worker := newCaptureWorker(id, source, capture, slot, m.opts.RetryInterval, m.logger)
	m.slots[id] = slot
	m.workers[id] = worker

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		worker.run(m.stop)
	}()
	return true
}

func (m *Manager) isStopped() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stopped
}

// GetFrame returns the latest buffered frame for camera, never blocking.
func (m *Manager) GetFrame(camera int) (*models.Frame, bool) {
	m.mu.RLock()
	slot, ok := m.slots[camera]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return slot.Get()
}

// Cameras returns the ids of running cameras in ascending order.
func (m *Manager) Cameras() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int, 0, len(m.workers))
	for id := range m.workers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// HasCamera reports whether camera was opened.
func (m *Manager) HasCamera(camera int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.workers[camera]
	return ok
}

func (m *Manager) Status() []CameraStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]CameraStatus, 0, len(m.workers))
	for id, w := range m.workers {
		stats := m.slots[id].Stats()
		statuses = append(statuses, CameraStatus{
			Camera:     id,
			Source:     w.source,
			State:      w.State().String(),
			Pushed:     stats.Pushed,
			Dropped:    stats.Dropped,
			ReadErrors: w.readErrors.Load(),
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Camera < statuses[j].Camera })
	return statuses
}

// Shutdown stops all workers and waits until each has released its capture.
// It is idempotent and safe to call before or during Open.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.stopped = true
		close(m.stop)
		m.mu.Unlock()

		m.wg.Wait()
		m.logger.Info("🛑 All capture workers stopped")
	})
}
