package event

import (
	"chatroom/domain"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	SessionID() string
}

// MessagePosted is emitted after a message has been durably appended.
type MessagePosted struct {
	ID      uuid.UUID
	Session string
	Author  string
	Content string
	Lang    string
	At      time.Time
}

func (m MessagePosted) SessionID() string {
	return m.Session
}

// FeedRefreshed carries the outcome of one poll tick for one session.
type FeedRefreshed struct {
	Session string
	Result  domain.RefreshResult
}

func (f FeedRefreshed) SessionID() string {
	return f.Session
}
