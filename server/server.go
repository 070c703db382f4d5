// Package server exposes the HTTP API consumed by the presentation layer:
// session admission, message submission, poll refresh, search, health and
// metrics. It is a thin consumer of the engine, all chat semantics live in
// the services layer.
package server

import (
	"chatroom/observability"
	"chatroom/projection"
	"chatroom/repositories"
	"chatroom/runtime"
	"chatroom/services"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SearchFunc is the optional full-text read side; nil disables /api/search.
type SearchFunc func(ctx context.Context, query string, limit int) ([]repositories.SearchHit, error)

// NewMux returns the HTTP handler with all routes.
func NewMux(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", h.HandleHealthz)
	mux.HandleFunc("GET /stats", h.HandleStats)
	mux.HandleFunc("GET /timeline", h.HandleTimeline)

	mux.HandleFunc("POST /api/sessions", h.HandleCreateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleCloseSession)
	mux.HandleFunc("GET /api/sessions/{id}/feed", h.HandleFeed)
	mux.HandleFunc("GET /api/sessions/{id}/snapshot", h.HandleSnapshot)
	mux.HandleFunc("POST /api/sessions/{id}/messages", h.HandleSend)
	mux.HandleFunc("GET /api/search", h.HandleSearch)

	return logging(h.log, mux)
}

// Handlers carries the engine dependencies of every route.
type Handlers struct {
	log      *slog.Logger
	feed     services.IFeedService
	registry *runtime.Registry
	monitor  *observability.Monitor
	timeline *projection.Timeline
	options  []services.SessionOption
	search   SearchFunc
}

func NewHandlers(log *slog.Logger, feed services.IFeedService, registry *runtime.Registry,
	monitor *observability.Monitor, timeline *projection.Timeline, search SearchFunc,
	options ...services.SessionOption) *Handlers {
	return &Handlers{
		log:      log,
		feed:     feed,
		registry: registry,
		monitor:  monitor,
		timeline: timeline,
		options:  options,
		search:   search,
	}
}

// logging wraps the mux with request-level slog entries.
func logging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
