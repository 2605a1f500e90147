package camera

import (
	"sync"
	"testing"

	"surveillance/internal/models"
)

func frameSeq(seq uint64) *models.Frame {
	f := models.NewFrame(2, 2, 3)
	f.Seq = seq
	return f
}

func TestFrameSlot_GetOnEmpty(t *testing.T) {
	slot := NewFrameSlot(2)

	frame, ok := slot.Get()
	if ok || frame != nil {
		t.Errorf("Expected empty slot, got %v", frame)
	}
}

func TestFrameSlot_DropOldest(t *testing.T) {
	for n := 1; n <= 7; n++ {
		slot := NewFrameSlot(2)
		for i := 1; i <= n; i++ {
			slot.Push(frameSeq(uint64(i)))
		}

		buffered := slot.Snapshot()
		if len(buffered) > 2 {
			t.Fatalf("After %d pushes slot holds %d frames", n, len(buffered))
		}
		for _, f := range buffered {
			if f.Seq+2 <= uint64(n) {
				t.Errorf("After %d pushes slot still holds frame %d", n, f.Seq)
			}
		}
		if n >= 2 && (buffered[0].Seq != uint64(n-1) || buffered[1].Seq != uint64(n)) {
			t.Errorf("After %d pushes expected frames [%d %d], got [%d %d]",
				n, n-1, n, buffered[0].Seq, buffered[1].Seq)
		}

		stats := slot.Stats()
		wantDropped := uint64(0)
		if n > 2 {
			wantDropped = uint64(n - 2)
		}
		if stats.Pushed != uint64(n) || stats.Dropped != wantDropped {
			t.Errorf("After %d pushes expected pushed=%d dropped=%d, got %+v", n, n, wantDropped, stats)
		}
	}
}

func TestFrameSlot_GetReturnsNewestAndDrains(t *testing.T) {
	slot := NewFrameSlot(2)
	slot.Push(frameSeq(1))
	slot.Push(frameSeq(2))

	frame, ok := slot.Get()
	if !ok || frame.Seq != 2 {
		t.Fatalf("Expected newest frame 2, got %v ok=%v", frame, ok)
	}
	if slot.Len() != 0 {
		t.Errorf("Expected drained slot, got %d frames", slot.Len())
	}
	if _, ok := slot.Get(); ok {
		t.Error("Second Get on a drained slot should be empty")
	}
}

func TestFrameSlot_ConcurrentProducerConsumers(t *testing.T) {
	slot := NewFrameSlot(2)
	const pushes = 5000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= pushes; i++ {
			slot.Push(frameSeq(uint64(i)))
		}
	}()

	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for i := 0; i < pushes; i++ {
				if f, ok := slot.Get(); ok {
					if f.Seq <= last {
						t.Errorf("Reader saw frame %d after %d", f.Seq, last)
						return
					}
					last = f.Seq
				}
				if slot.Len() > 2 {
					t.Errorf("Slot exceeded capacity: %d", slot.Len())
					return
				}
			}
		}()
	}

	wg.Wait()
}
