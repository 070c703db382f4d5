package projection

import (
	"chatroom/domain"
	"chatroom/domain/event"
	"context"
	"sync"
)

// Snapshot retains the most recent refresh delivered to one session by the
// background poller, so the presentation layer can serve a cached view
// without touching the store. It is a sink, safe for concurrent use.
type Snapshot struct {
	mu    sync.Mutex
	last  domain.RefreshResult
	ready bool
}

func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

func (s *Snapshot) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.FeedRefreshed:
		s.mu.Lock()
		s.last = evt.Result
		s.ready = true
		s.mu.Unlock()
	}
	return nil
}

// Latest returns the last delivered result; false until the first delivery.
func (s *Snapshot) Latest() (domain.RefreshResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.ready
}
