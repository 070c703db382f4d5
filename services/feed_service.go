package services

import (
	"chatroom/contract"
	"chatroom/domain"
	"chatroom/domain/event"
	"chatroom/errors"
	"chatroom/moderation"
	"chatroom/observability"
	"chatroom/projection"
	"chatroom/telemetry"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultRecentLimit bounds the feed window when the caller gives none.
const DefaultRecentLimit = 50

var validate = validator.New()

type postInput struct {
	User string `validate:"required"`
	Text string `validate:"required"`
}

type IFeedService interface {
	GetRecent(ctx context.Context, limit int) ([]domain.Message, error)
	PostMessage(ctx context.Context, session, user, text string) error
}

// FeedService owns the read and write paths of the shared message log.
// It never mutates existing entries: reads are snapshots, writes append
// exactly one row. Visibility of concurrent appends is whatever the
// backing store provides.
type FeedService struct {
	repository   messageLog
	moderator    *moderation.Moderator
	monitor      *observability.Monitor
	sinks        []contract.EventSink
	log          *slog.Logger
	location     *time.Location
	defaultLimit int
	storeTimeout time.Duration
	now          func() time.Time
}

// messageLog is kept narrow on purpose, the service only ever needs the
// log contract of repositories.IMessageRepository.
type messageLog interface {
	ReadAll(ctx context.Context) ([]domain.Message, error)
	Append(ctx context.Context, message domain.Message) error
}

type FeedOption func(*FeedService)

// WithModerator censors forbidden words before a message reaches the store.
func WithModerator(m *moderation.Moderator) FeedOption {
	return func(s *FeedService) { s.moderator = m }
}

// WithClock overrides the time source, tests only.
func WithClock(now func() time.Time) FeedOption {
	return func(s *FeedService) { s.now = now }
}

// WithStoreTimeout bounds every store round trip. On expiry the failure
// surfaces as ErrStoreUnavailable from the repository.
func WithStoreTimeout(d time.Duration) FeedOption {
	return func(s *FeedService) { s.storeTimeout = d }
}

// WithRecentLimit replaces the default feed window size.
func WithRecentLimit(limit int) FeedOption {
	return func(s *FeedService) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}

func NewFeedService(repository messageLog, monitor *observability.Monitor,
	location *time.Location, log *slog.Logger, opts ...FeedOption) *FeedService {
	s := &FeedService{
		repository:   repository,
		monitor:      monitor,
		log:          log,
		location:     location,
		defaultLimit: DefaultRecentLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers sinks notified after each successful append.
func (s *FeedService) Add(sinks ...contract.EventSink) {
	s.sinks = append(s.sinks, sinks...)
}

// GetRecent reads the whole log and keeps the last limit entries in
// original chronological order. limit <= 0 falls back to the configured
// default. The underlying log is never mutated.
func (s *FeedService) GetRecent(ctx context.Context, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	ctx, cancel := s.boundStore(ctx)
	defer cancel()

	var messages []domain.Message
	var err error
	telemetry.TimeFunc(telemetry.StoreLatency, func() {
		messages, err = s.repository.ReadAll(ctx)
	})
	if err != nil {
		s.monitor.StoreError()
		telemetry.Inc(telemetry.StoreErrors)
		return nil, err
	}
	return projection.Recent(messages, limit), nil
}

// PostMessage validates, stamps and appends one message on behalf of
// session. Validation failures never reach the store. The next read picks
// the new row up, no cached view is updated here.
func (s *FeedService) PostMessage(ctx context.Context, session, user, text string) error {
	user = strings.TrimSpace(user)
	text = strings.TrimSpace(text)
	if err := validate.Struct(postInput{User: user, Text: text}); err != nil {
		s.monitor.MessageRejected()
		telemetry.Inc(telemetry.MessagesRejected)
		return fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err)
	}

	if s.moderator != nil {
		text = s.moderator.Censor(text)
	}

	info := whatlanggo.Detect(text)
	message := domain.Message{
		ID:   uuid.New(),
		User: user,
		Text: text,
		Lang: info.Lang.Iso6391(),
		At:   s.now().In(s.location).Truncate(time.Second),
	}

	storeCtx, cancel := s.boundStore(ctx)
	defer cancel()

	var err error
	telemetry.TimeFunc(telemetry.StoreLatency, func() {
		err = s.repository.Append(storeCtx, message)
	})
	if err != nil {
		s.monitor.StoreError()
		telemetry.Inc(telemetry.StoreErrors)
		return err
	}

	s.monitor.MessagePosted()
	telemetry.Inc(telemetry.MessagesPosted)
	s.publish(ctx, event.MessagePosted{
		ID:      message.ID,
		Session: session,
		Author:  message.User,
		Content: message.Text,
		Lang:    message.Lang,
		At:      message.At,
	})
	return nil
}

func (s *FeedService) publish(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range s.sinks {
		if err := sink.Consume(ctx, evt); err != nil {
			s.log.Warn("Sink rejected event", "error", err)
		}
	}
}

func (s *FeedService) boundStore(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}
