// Package runtime hosts the session registry and the supervised workers
// that drive polling, without containing business logic or domain rules.
package runtime

import (
	"chatroom/contract"
	"chatroom/services"
	"sync"
)

// Entry binds one connected session to its delivery sink.
type Entry struct {
	Session *services.ChatSession
	Sink    contract.EventSink
}

// Registry is the thread-safe directory of live sessions.
// Sessions are keyed by their own identifier; there is no shared-by-default
// state between users beyond the store the feed service points at.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Entry)}
}

func (r *Registry) Register(session *services.ChatSession, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = Entry{Session: session, Sink: sink}
}

func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *Registry) Get(sessionID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sessionID]
	return entry, ok
}

// List snapshots the current entries so callers never iterate under the lock.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]Entry, 0, len(r.sessions))
	for _, entry := range r.sessions {
		entries = append(entries, entry)
	}
	return entries
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
