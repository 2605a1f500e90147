package storage

import (
	"context"
	"sync"

	"surveillance/internal/logger"
	"surveillance/internal/models"
	"surveillance/internal/repository"
)

// Mirror copies an evidence file to secondary storage.
type Mirror interface {
	PutFile(ctx context.Context, key, path string) error
}

// Archiver catalogs saved evidence and mirrors it off-host in the background
// so the frame pipeline never waits on the database or the network.
type Archiver struct {
	repo   repository.EvidenceRepository
	mirror Mirror
	logger *logger.Logger

	mu     sync.RWMutex
	queue  chan models.EvidenceRecord
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewArchiver starts workers draining a queue of queueSize records. mirror
// may be nil.
func NewArchiver(repo repository.EvidenceRepository, mirror Mirror, workers, queueSize int, log *logger.Logger) *Archiver {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Archiver{
		repo:   repo,
		mirror: mirror,
		logger: log,
		queue:  make(chan models.EvidenceRecord, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go a.worker(i)
	}

	a.logger.Info("🗄️ Archiver started with %d worker(s)", workers)
	return a
}

// Enqueue hands rec to the workers. It reports false when the queue is full
// or the archiver is closed; the evidence file itself is unaffected.
func (a *Archiver) Enqueue(rec models.EvidenceRecord) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return false
	}

	select {
	case a.queue <- rec:
		return true
	default:
		a.logger.Warning("⚠️  Archive queue full - %s not catalogued", rec.Filename)
		return false
	}
}

func (a *Archiver) worker(workerID int) {
	defer a.wg.Done()

	for rec := range a.queue {
		a.archive(rec)
	}

	a.logger.Info("🗄️ Archive worker %d stopped", workerID)
}

func (a *Archiver) archive(rec models.EvidenceRecord) {
	if _, err := a.repo.Insert(&rec); err != nil {
		a.logger.Error("Failed to catalog %s: %v", rec.Filename, err)
	}

	if a.mirror == nil {
		return
	}
	if err := a.mirror.PutFile(a.ctx, rec.Filename, rec.FilePath); err != nil {
		a.logger.Error("Failed to mirror %s: %v", rec.Filename, err)
	}
}

// Close drains queued records and stops the workers. ctx bounds the wait;
// when it expires in-flight uploads are cancelled.
func (a *Archiver) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.cancel()
		a.logger.Info("🛑 All archive workers stopped")
		return nil
	case <-ctx.Done():
		a.cancel()
		<-done
		return ctx.Err()
	}
}
