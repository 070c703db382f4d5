package test

import (
	"chatroom/domain/event"
	"chatroom/mocks"
	"chatroom/moderation"
	"chatroom/observability"
	"chatroom/projection"
	"chatroom/repositories"
	"chatroom/runtime"
	"chatroom/runtime/workers"
	"chatroom/services"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Scenario(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	cfg, err := LoadConfig()
	req.NoError(err)

	// Reduced to 16 Mo for testing
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitor := observability.NewMonitor(log)
	repository := repositories.NewMessageRepository(db, nil, log)

	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	req.NoError(err)

	// Ticking clock keeps append order deterministic despite the
	// second-level precision of stored timestamps.
	base := time.Now().UTC().Truncate(time.Second)
	step := 0
	feed := services.NewFeedService(repository, monitor, time.UTC, log,
		services.WithModerator(&moderator),
		services.WithClock(func() time.Time {
			step++
			return base.Add(time.Duration(step) * time.Second)
		}))

	timeline := projection.NewTimeline("integration")
	feed.Add(timeline)

	// 1. Two independent sessions sharing the same store
	alice := services.NewChatSession(feed, monitor, services.WithPresenceWindow(cfg.PresenceWindow))
	bob := services.NewChatSession(feed, monitor, services.WithPresenceWindow(cfg.PresenceWindow))
	req.NoError(alice.SetUsername("alice"))
	req.NoError(bob.SetUsername("bob"))

	req.NoError(alice.Send(ctx, "hello there"))
	req.NoError(bob.Send(ctx, "the badger is loose"))

	// 2. A write from one session is visible in the other's next refresh
	result, err := alice.Refresh(ctx)
	req.NoError(err)
	req.Len(result.Messages, 2)
	req.Equal("hello there", result.Messages[0].Text)
	req.Equal("the ****** is loose", result.Messages[1].Text)
	req.Equal([]string{"alice", "bob"}, result.Online)

	// 3. The timeline sink observed both posts
	req.Len(timeline.Messages(), 2)

	// 4. Poll tick delivers a FeedRefreshed event to the session's sink
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	refreshed := make(chan struct{})
	var once sync.Once
	sink := mocks.NewMockEventSink(ctrl)
	sink.EXPECT().
		Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			if _, ok := e.(event.FeedRefreshed); ok {
				once.Do(func() { close(refreshed) })
			}
			return nil
		}).
		MinTimes(1)

	registry := runtime.NewRegistry()
	registry.Register(alice, sink)

	supervisor := workers.NewSupervisor(log)
	supervisor.Add(workers.NewPoller(log, registry, cfg.PollInterval))

	done := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		supervisor.Stop()
		<-done
	})

	select {
	case <-refreshed:
	case <-time.After(cfg.WaitTimeout):
		req.Fail("no refresh delivered before timeout")
	}
}
