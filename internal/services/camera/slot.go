package camera

import (
	"sync"

	"surveillance/internal/models"
)

// DefaultSlotCapacity is the slot size of every camera. Two frames keep
// latency low.
const DefaultSlotCapacity = 2

// FrameSlot is a small bounded buffer between one capture worker and any
// number of readers. When full, the oldest frame is dropped to admit the new
// one. Neither side ever blocks.
type FrameSlot struct {
	mu       sync.Mutex
	frames   []*models.Frame // oldest first
	capacity int

	pushed  uint64
	dropped uint64
}

// SlotStats is a snapshot of slot counters.
type SlotStats struct {
	Pushed   uint64
	Dropped  uint64
	Buffered int
}

func NewFrameSlot(capacity int) *FrameSlot {
	if capacity < 1 {
		capacity = DefaultSlotCapacity
	}
	return &FrameSlot{
		frames:   make([]*models.Frame, 0, capacity),
		capacity: capacity,
	}
}

// Push buffers frame, evicting the oldest one when the slot is full.
// It reports whether a frame was dropped.
func (s *FrameSlot) Push(frame *models.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pushed++
	dropped := false
	if len(s.frames) == s.capacity {
		copy(s.frames, s.frames[1:])
		s.frames[len(s.frames)-1] = nil
		s.frames = s.frames[:len(s.frames)-1]
		s.dropped++
		dropped = true
	}
	s.frames = append(s.frames, frame)
	return dropped
}

// Get returns the newest buffered frame and drains the slot, so a frame older
// than one already handed out is never returned later.
func (s *FrameSlot) Get() (*models.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.frames)
	if n == 0 {
		return nil, false
	}
	frame := s.frames[n-1]
	for i := range s.frames {
		s.frames[i] = nil
	}
	s.frames = s.frames[:0]
	return frame, true
}

// Len returns the number of buffered frames.
func (s *FrameSlot) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Snapshot returns the buffered frames, oldest first, without consuming them.
func (s *FrameSlot) Snapshot() []*models.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *FrameSlot) Stats() SlotStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SlotStats{Pushed: s.pushed, Dropped: s.dropped, Buffered: len(s.frames)}
}
