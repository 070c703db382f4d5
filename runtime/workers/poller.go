package workers

import (
	"chatroom/domain"
	"chatroom/domain/event"
	"chatroom/runtime"
	"context"
	"log/slog"
	"time"
)

// Poller is the timer collaborator of the polling architecture: every tick
// it refreshes each Active session and hands the result to that session's
// sink. A failed refresh is logged and retried on the next tick, it never
// stops the loop.
type Poller struct {
	log      *slog.Logger
	registry *runtime.Registry
	interval time.Duration
}

func NewPoller(log *slog.Logger, registry *runtime.Registry, interval time.Duration) *Poller {
	return &Poller{log: log, registry: registry, interval: interval}
}

func (w *Poller) Run(ctx context.Context) error {
	w.log.Info("Starting feed poller", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Poller) tick(ctx context.Context) {
	for _, entry := range w.registry.List() {
		if entry.Session.State() != domain.Active {
			continue
		}
		result, err := entry.Session.Refresh(ctx)
		if err != nil {
			w.log.Warn("Refresh failed, will retry next tick",
				"session", entry.Session.ID(), "error", err)
			continue
		}
		if entry.Sink == nil {
			continue
		}
		evt := event.FeedRefreshed{Session: entry.Session.ID(), Result: result}
		if err := entry.Sink.Consume(ctx, evt); err != nil {
			w.log.Warn("Sink rejected refresh", "session", entry.Session.ID(), "error", err)
		}
	}
}
