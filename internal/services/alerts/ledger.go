package alerts

import (
	"sync"

	"surveillance/internal/models"
)

// DefaultCapacity is the number of alerts kept in memory.
const DefaultCapacity = 100

// Ledger is a bounded alert history. When full, the oldest alert is evicted.
type Ledger struct {
	mu       sync.RWMutex
	data     []models.Alert
	capacity int
	size     int
	head     int // next write position
}

func NewLedger(capacity int) *Ledger {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Ledger{
		data:     make([]models.Alert, capacity),
		capacity: capacity,
	}
}

// AppendAll appends alerts in order as one unit. Readers never observe part
// of a batch.
func (l *Ledger) AppendAll(alerts []models.Alert) {
	if len(alerts) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, a := range alerts {
		l.data[l.head] = a
		l.head = (l.head + 1) % l.capacity
		if l.size < l.capacity {
			l.size++
		}
	}
}

// ListNewestFirst returns a copy of the history, most recent alert first.
func (l *Ledger) ListNewestFirst() []models.Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]models.Alert, l.size)
	pos := l.head
	for i := 0; i < l.size; i++ {
		pos = (pos - 1 + l.capacity) % l.capacity
		result[i] = l.data[pos]
	}
	return result
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

func (l *Ledger) Capacity() int {
	return l.capacity
}
