package services

import (
	"chatroom/domain"
	"chatroom/errors"
	"chatroom/observability"
	"chatroom/projection"
	"chatroom/telemetry"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChatSession is the per-connection orchestrator between the presentation
// layer and the feed engine. One instance per connected user; instances
// share nothing except the message store behind the feed service.
//
// State machine: AwaitingName -> Active, no way back within one session.
// The username is immutable once set. Safe for concurrent use.
type ChatSession struct {
	mu              sync.Mutex
	id              string
	username        string
	state           domain.SessionState
	lastRefreshedAt time.Time

	feed    IFeedService
	monitor *observability.Monitor
	window  time.Duration
	limit   int
	now     func() time.Time
}

type SessionOption func(*ChatSession)

// WithSessionClock overrides the time source, tests only.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *ChatSession) { s.now = now }
}

// WithPresenceWindow replaces the default recency window behind "online".
func WithPresenceWindow(window time.Duration) SessionOption {
	return func(s *ChatSession) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithFeedLimit bounds how many messages one refresh fetches.
func WithFeedLimit(limit int) SessionOption {
	return func(s *ChatSession) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

func NewChatSession(feed IFeedService, monitor *observability.Monitor, opts ...SessionOption) *ChatSession {
	s := &ChatSession{
		id:      uuid.NewString(),
		state:   domain.AwaitingName,
		feed:    feed,
		monitor: monitor,
		window:  projection.DefaultWindow,
		limit:   DefaultRecentLimit,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ChatSession) ID() string {
	return s.id
}

func (s *ChatSession) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *ChatSession) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetUsername transitions AwaitingName -> Active. The trimmed name is kept
// for the whole session lifetime; renaming is rejected.
func (s *ChatSession) SetUsername(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.ErrInvalidUsername
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.Active {
		return fmt.Errorf("%w: username already set to %q", errors.ErrInvalidUsername, s.username)
	}
	s.username = name
	s.state = domain.Active
	return nil
}

// Refresh serves one poll tick: a single fetched batch feeds both the
// message list and the online set, computed against the same now.
// Idempotent modulo concurrent appends by other sessions.
func (s *ChatSession) Refresh(ctx context.Context) (domain.RefreshResult, error) {
	if s.State() != domain.Active {
		return domain.RefreshResult{}, errors.ErrNotReady
	}

	now := s.now()
	var messages []domain.Message
	var err error
	telemetry.TimeFunc(telemetry.RefreshLatency, func() {
		messages, err = s.feed.GetRecent(ctx, s.limit)
	})
	if err != nil {
		return domain.RefreshResult{}, err
	}
	online := projection.OnlineUsers(messages, now, s.window)

	s.mu.Lock()
	s.lastRefreshedAt = now
	s.mu.Unlock()

	s.monitor.Refreshed()
	telemetry.Inc(telemetry.Refreshes)
	return domain.RefreshResult{Messages: messages, Online: online, At: now}, nil
}

// Send posts on behalf of the session's user. It deliberately does not
// refresh: the next poll tick surfaces the new message.
func (s *ChatSession) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.state != domain.Active {
		s.mu.Unlock()
		return errors.ErrNotReady
	}
	username := s.username
	s.mu.Unlock()

	return s.feed.PostMessage(ctx, s.id, username, text)
}

// LastRefreshedAt is UI bookkeeping only, never authoritative.
func (s *ChatSession) LastRefreshedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefreshedAt
}
