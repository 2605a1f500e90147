package handlers

import (
	"context"
	"net/http"
	"sync"
)

// Sessions counts running websocket handlers. http.Server.Shutdown does not
// wait for hijacked connections, so the app waits here before releasing the
// models those handlers use.
type Sessions struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewSessions() *Sessions {
	return &Sessions{}
}

// Track wraps a long-lived handler. Once Close was called new requests get
// 503 and never reach next.
func (s *Sessions) Track(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.enter() {
			http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
			return
		}
		defer s.wg.Done()
		next(w, r)
	}
}

func (s *Sessions) enter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

// Close refuses new sessions and waits for running ones to return. Handlers
// only return once their request context is cancelled or the peer leaves.
func (s *Sessions) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
