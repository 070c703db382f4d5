package server

import (
	"bytes"
	"chatroom/domain"
	"chatroom/domain/event"
	"chatroom/observability"
	"chatroom/projection"
	"chatroom/repositories"
	"chatroom/runtime"
	"chatroom/services"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// newTestServer wires the real engine over a throwaway badger store.
func newTestServer(t *testing.T) (*httptest.Server, *runtime.Registry) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	monitor := observability.NewMonitor(log)
	repository := repositories.NewMessageRepository(db, nil, log)
	feed := services.NewFeedService(repository, monitor, time.UTC, log)
	timeline := projection.NewTimeline("server")
	feed.Add(timeline)
	registry := runtime.NewRegistry()

	handlers := NewHandlers(log, feed, registry, monitor, timeline, nil,
		services.WithPresenceWindow(5*time.Minute))
	srv := httptest.NewServer(NewMux(handlers))
	t.Cleanup(srv.Close)
	return srv, registry
}

func createSession(t *testing.T, srv *httptest.Server, name string) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/sessions", "application/json",
		bytes.NewBufferString(fmt.Sprintf(`{"name":%q}`, name)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.SessionID)
	return body.SessionID
}

func TestServer_SessionLifecycle(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestServer(t)

	id := createSession(t, srv, "  alice ")

	resp, err := http.Get(srv.URL + "/api/sessions/" + id + "/feed")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	request, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/"+id, nil)
	req.NoError(err)
	deleteResp, err := http.DefaultClient.Do(request)
	req.NoError(err)
	defer deleteResp.Body.Close()
	req.Equal(http.StatusNoContent, deleteResp.StatusCode)

	// Session is gone afterwards
	gone, err := http.Get(srv.URL + "/api/sessions/" + id + "/feed")
	req.NoError(err)
	defer gone.Body.Close()
	req.Equal(http.StatusNotFound, gone.StatusCode)
}

func TestServer_RejectsBlankUsername(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/sessions", "application/json",
		strings.NewReader(`{"name":"   "}`))
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestServer_SendAndRefreshRoundTrip(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestServer(t)
	id := createSession(t, srv, "alice")

	send, err := http.Post(srv.URL+"/api/sessions/"+id+"/messages", "application/json",
		strings.NewReader(`{"text":"hello"}`))
	req.NoError(err)
	defer send.Body.Close()
	req.Equal(http.StatusAccepted, send.StatusCode)

	feed, err := http.Get(srv.URL + "/api/sessions/" + id + "/feed")
	req.NoError(err)
	defer feed.Body.Close()
	req.Equal(http.StatusOK, feed.StatusCode)

	var body struct {
		Messages []struct {
			User string `json:"user"`
			Text string `json:"text"`
		} `json:"messages"`
		Online []string `json:"online"`
	}
	req.NoError(json.NewDecoder(feed.Body).Decode(&body))
	req.Len(body.Messages, 1)
	req.Equal("alice", body.Messages[0].User)
	req.Equal("hello", body.Messages[0].Text)
	req.Equal([]string{"alice"}, body.Online)
}

func TestServer_RejectsBlankMessage(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestServer(t)
	id := createSession(t, srv, "alice")

	resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/messages", "application/json",
		strings.NewReader(`{"text":"   "}`))
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestServer_UnknownSessionIs404(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/sessions/nope/messages", "application/json",
		strings.NewReader(`{"text":"hi"}`))
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestServer_SnapshotServedFromPollerSink(t *testing.T) {
	req := require.New(t)
	srv, registry := newTestServer(t)
	id := createSession(t, srv, "alice")

	// Nothing delivered yet
	empty, err := http.Get(srv.URL + "/api/sessions/" + id + "/snapshot")
	req.NoError(err)
	defer empty.Body.Close()
	req.Equal(http.StatusNoContent, empty.StatusCode)

	// Registration attached a snapshot sink; a poll tick fills it.
	entry, ok := registry.Get(id)
	req.True(ok)
	req.NotNil(entry.Sink)
	now := time.Now().UTC().Truncate(time.Second)
	req.NoError(entry.Sink.Consume(context.Background(), event.FeedRefreshed{
		Session: id,
		Result:  domain.RefreshResult{Online: []string{"alice"}, At: now},
	}))

	resp, err := http.Get(srv.URL + "/api/sessions/" + id + "/snapshot")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var body struct {
		Online []string `json:"online"`
		At     string   `json:"at"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.Equal([]string{"alice"}, body.Online)
	req.Equal(now.Format(time.RFC3339), body.At)
}

func TestServer_SnapshotUnknownSessionIs404(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/sessions/nope/snapshot")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestServer_TimelineTracksAcceptedMessages(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestServer(t)
	id := createSession(t, srv, "alice")

	send, err := http.Post(srv.URL+"/api/sessions/"+id+"/messages", "application/json",
		strings.NewReader(`{"text":"hello"}`))
	req.NoError(err)
	defer send.Body.Close()
	req.Equal(http.StatusAccepted, send.StatusCode)

	resp, err := http.Get(srv.URL + "/timeline")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var body struct {
		Messages []struct {
			User string `json:"user"`
			Text string `json:"text"`
		} `json:"messages"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.Len(body.Messages, 1)
	req.Equal("alice", body.Messages[0].User)
	req.Equal("hello", body.Messages[0].Text)
}

func TestServer_SearchDisabledWithoutIndex(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/search?q=hello")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestServer_Healthz(t *testing.T) {
	req := require.New(t)
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
}
