package projection

import (
	"chatroom/domain"
	"chatroom/domain/event"
	"context"
	"sync"
)

// Timeline holds a simple local timeline for one session, filled from
// MessagePosted events. It is a sink, safe for concurrent use.
type Timeline struct {
	mu       sync.Mutex
	Owner    string
	messages []domain.Message
}

func NewTimeline(owner string) *Timeline {
	return &Timeline{Owner: owner}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessagePosted:
		t.mu.Lock()
		t.messages = append(t.messages, fromEvent(evt))
		t.mu.Unlock()
	}
	return nil
}

func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Message(nil), t.messages...)
}

func fromEvent(evt event.MessagePosted) domain.Message {
	return domain.Message{
		ID:   evt.ID,
		User: evt.Author,
		Text: evt.Content,
		Lang: evt.Lang,
		At:   evt.At,
	}
}
