package server

import (
	"chatroom/domain"
	"chatroom/errors"
	"chatroom/projection"
	"chatroom/services"
	"chatroom/telemetry"
	"encoding/json"
	goerrors "errors"
	"net/http"
	"strconv"
	"time"
)

type createSessionRequest struct {
	Name string `json:"name"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
}

type sendRequest struct {
	Text string `json:"text"`
}

type messageJSON struct {
	ID   string `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
	Lang string `json:"lang,omitempty"`
	At   string `json:"at"`
}

type feedResponse struct {
	Messages []messageJSON `json:"messages"`
	Online   []string      `json:"online"`
	At       string        `json:"at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleCreateSession admits a new connection: one session per user, named
// once, destroyed only when the connection ends.
func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	session := services.NewChatSession(h.feed, h.monitor, h.options...)
	if err := session.SetUsername(req.Name); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	// Each session gets its own snapshot sink; the poller keeps it warm.
	h.registry.Register(session, projection.NewSnapshot())
	h.monitor.SessionOpened()
	telemetry.SetActiveSessions(h.registry.Len())

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: session.ID(),
		Username:  session.Username(),
	})
}

func (h *Handlers) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.registry.Get(id); !ok {
		writeError(w, http.StatusNotFound, errors.ErrUnknownSession)
		return
	}
	h.registry.Unregister(id)
	h.monitor.SessionClosed()
	telemetry.SetActiveSessions(h.registry.Len())
	w.WriteHeader(http.StatusNoContent)
}

// HandleFeed serves one poll tick: the bounded recent window plus the
// online set derived from the same batch.
func (h *Handlers) HandleFeed(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.ErrUnknownSession)
		return
	}

	result, err := entry.Session.Refresh(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toFeedResponse(result))
}

// HandleSend accepts a message for append. A failure is always reported so
// the user can retry; nothing is dropped silently.
func (h *Handlers) HandleSend(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.ErrUnknownSession)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := entry.Session.Send(r.Context(), req.Text); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleSnapshot serves the last view the background poller delivered to
// this session's sink. Cheaper than /feed: no store read, at most one poll
// interval stale. 204 until the first tick has been delivered.
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.registry.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.ErrUnknownSession)
		return
	}
	snapshot, ok := entry.Sink.(*projection.Snapshot)
	if !ok {
		writeError(w, http.StatusNotFound, goerrors.New("session has no snapshot sink"))
		return
	}
	result, ok := snapshot.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toFeedResponse(result))
}

// HandleTimeline lists the messages accepted by this process since start,
// in acceptance order, straight from the in-memory projection.
func (h *Handlers) HandleTimeline(w http.ResponseWriter, _ *http.Request) {
	if h.timeline == nil {
		writeError(w, http.StatusNotFound, goerrors.New("timeline is not enabled"))
		return
	}
	messages := h.timeline.Messages()
	out := make([]messageJSON, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageJSON{
			ID:   m.ID.String(),
			User: m.User,
			Text: m.Text,
			Lang: m.Lang,
			At:   m.At.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		writeError(w, http.StatusNotFound, goerrors.New("search is not enabled"))
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, goerrors.New("missing q parameter"))
		return
	}
	limit := services.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, goerrors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	hits, err := h.search(r.Context(), query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

func (h *Handlers) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.GetLatest())
}

// statusFor maps the engine's error taxonomy onto HTTP codes.
func statusFor(err error) int {
	switch {
	case goerrors.Is(err, errors.ErrInvalidUsername),
		goerrors.Is(err, errors.ErrInvalidMessage):
		return http.StatusBadRequest
	case goerrors.Is(err, errors.ErrNotReady):
		return http.StatusConflict
	case goerrors.Is(err, errors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func toFeedResponse(result domain.RefreshResult) feedResponse {
	messages := make([]messageJSON, 0, len(result.Messages))
	for _, m := range result.Messages {
		messages = append(messages, messageJSON{
			ID:   m.ID.String(),
			User: m.User,
			Text: m.Text,
			Lang: m.Lang,
			At:   m.At.Format(time.RFC3339),
		})
	}
	online := result.Online
	if online == nil {
		online = []string{}
	}
	return feedResponse{
		Messages: messages,
		Online:   online,
		At:       result.At.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}
