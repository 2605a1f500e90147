package camera

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"surveillance/internal/logger"
	"surveillance/internal/models"
)

// fakeCapture yields frames until failing is set, then returns read errors.
type fakeCapture struct {
	failing atomic.Bool
	reads   atomic.Int64
	closed  atomic.Bool
	delay   time.Duration
}

func (c *fakeCapture) Read() (*models.Frame, error) {
	c.reads.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.failing.Load() {
		return nil, fmt.Errorf("%w: device unplugged", ErrSourceRead)
	}
	return models.NewFrame(4, 4, 3), nil
}

func (c *fakeCapture) Close() error {
	c.closed.Store(true)
	return nil
}

type fakeOpener struct {
	mu       sync.Mutex
	captures map[string]*fakeCapture
}

func newFakeOpener(sources ...string) *fakeOpener {
	o := &fakeOpener{captures: make(map[string]*fakeCapture)}
	for _, s := range sources {
		o.captures[s] = &fakeCapture{delay: time.Millisecond}
	}
	return o
}

func (o *fakeOpener) open(source string) (Capture, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.captures[source]
	if !ok {
		return nil, fmt.Errorf("%w: no such device %s", ErrSourceOpen, source)
	}
	return c, nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestManager_SkipsSourcesThatFailToOpen(t *testing.T) {
	opener := newFakeOpener("0", "rtsp://cam/2")
	m := NewManager(opener.open, Options{RetryInterval: 5 * time.Millisecond}, logger.NewNop())
	defer m.Shutdown()

	if err := m.Open([]string{"0", "missing", "rtsp://cam/2"}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	cams := m.Cameras()
	if len(cams) != 2 || cams[0] != 0 || cams[1] != 2 {
		t.Fatalf("Expected cameras [0 2], got %v", cams)
	}
	if m.HasCamera(1) {
		t.Error("Camera 1 should have been skipped")
	}

	waitFor(t, "a frame from camera 2", func() bool {
		f, ok := m.GetFrame(2)
		return ok && f.Camera == 2 && f.Seq > 0
	})
}

func TestManager_OpenFailsWhenNothingOpens(t *testing.T) {
	m := NewManager(newFakeOpener().open, Options{}, logger.NewNop())
	defer m.Shutdown()

	err := m.Open([]string{"a", "b"})
	if !errors.Is(err, ErrSourceOpen) {
		t.Errorf("Expected ErrSourceOpen, got %v", err)
	}
}

func TestManager_GetFrameUnknownCamera(t *testing.T) {
	m := NewManager(newFakeOpener().open, Options{}, logger.NewNop())
	defer m.Shutdown()

	if f, ok := m.GetFrame(9); ok || f != nil {
		t.Errorf("Expected empty result for unknown camera, got %v", f)
	}
}

func TestManager_ReadFailuresDegradeAndRecover(t *testing.T) {
	opener := newFakeOpener("0")
	capture := opener.captures["0"]
	capture.failing.Store(true)

	m := NewManager(opener.open, Options{RetryInterval: 2 * time.Millisecond}, logger.NewNop())
	defer m.Shutdown()
	if err := m.Open([]string{"0"}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	waitFor(t, "degraded state with retries", func() bool {
		st := m.Status()
		return len(st) == 1 && st[0].State == "degraded" && capture.reads.Load() > 3
	})
	if _, ok := m.GetFrame(0); ok {
		t.Error("Degraded camera should not produce frames")
	}

	capture.failing.Store(false)
	waitFor(t, "recovery", func() bool {
		_, ok := m.GetFrame(0)
		return ok && m.Status()[0].State == "streaming"
	})
}

func TestManager_ShutdownReleasesCapturesAndIsIdempotent(t *testing.T) {
	opener := newFakeOpener("0", "1")
	m := NewManager(opener.open, Options{RetryInterval: time.Millisecond}, logger.NewNop())
	if err := m.Open([]string{"0", "1"}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	opener.captures["1"].failing.Store(true)

	done := make(chan struct{})
	go func() {
		m.Shutdown()
		m.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	for src, c := range opener.captures {
		if !c.closed.Load() {
			t.Errorf("Capture %s was not released", src)
		}
	}
	for _, st := range m.Status() {
		if st.State != "closed" {
			t.Errorf("Camera %d in state %s after shutdown", st.Camera, st.State)
		}
	}
}

func TestManager_ShutdownBeforeOpen(t *testing.T) {
	opener := newFakeOpener("0")
	m := NewManager(opener.open, Options{}, logger.NewNop())

	m.Shutdown()
	if err := m.Open([]string{"0"}); err != nil {
		t.Fatalf("Open after shutdown should not fail: %v", err)
	}
	if len(m.Cameras()) != 0 {
		t.Errorf("No workers should start after shutdown, got %v", m.Cameras())
	}
}

func TestManager_SlotsHoldTwoFrames(t *testing.T) {
	opener := newFakeOpener("0")
	opener.captures["0"].delay = 0
	m := NewManager(opener.open, Options{}, logger.NewNop())
	defer m.Shutdown()
	if err := m.Open([]string{"0"}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	m.mu.RLock()
	slot := m.slots[0]
	m.mu.RUnlock()

	waitFor(t, "frames to be dropped", func() bool {
		return slot.Stats().Dropped > 0
	})
	if n := slot.Len(); n > DefaultSlotCapacity || DefaultSlotCapacity != 2 {
		t.Errorf("Expected at most 2 buffered frames, got %d (capacity %d)", n, DefaultSlotCapacity)
	}
}

func TestCaptureWorker_RetryWaitsBetweenFailedReads(t *testing.T) {
	capture := &fakeCapture{}
	capture.failing.Store(true)

	const retry = 20 * time.Millisecond
	w := newCaptureWorker(0, "0", capture, NewFrameSlot(DefaultSlotCapacity), retry, logger.NewNop())
	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		w.run(stop)
		close(finished)
	}()

	time.Sleep(110 * time.Millisecond)
	close(stop)
	<-finished

	// about six reads fit in the window when each failure waits one interval
	reads := capture.reads.Load()
	if reads < 2 || reads > 10 {
		t.Errorf("Expected failed reads to be paced at %s, got %d reads in 110ms", retry, reads)
	}
	if w.State() != StateClosed || !capture.closed.Load() {
		t.Errorf("Worker should release its capture, state=%s", w.State())
	}
}
