// Package projection builds derived, read-only views from the message log.
// Handles the bounded recent window and the online-user approximation.
// Does not emit events or interact with UI directly.
package projection

import (
	"chatroom/domain"
	"sort"
	"time"

	"github.com/samber/lo"
)

// DefaultWindow is the recency window behind the "online" approximation.
const DefaultWindow = 5 * time.Minute

// OnlineUsers returns the distinct users that posted within [now-window, now],
// sorted for deterministic rendering. There is no heartbeat protocol: presence
// is approximated purely from posting activity inside the already-fetched
// batch, never from an unbounded read. A user whose most recent message is
// strictly older than the window is excluded, even the caller's own name.
func OnlineUsers(messages []domain.Message, now time.Time, window time.Duration) []string {
	if len(messages) == 0 {
		return nil
	}
	cutoff := now.Add(-window)
	recent := lo.Filter(messages, func(m domain.Message, _ int) bool {
		return !m.At.Before(cutoff)
	})
	users := lo.Uniq(lo.Map(recent, func(m domain.Message, _ int) string {
		return m.User
	}))
	sort.Strings(users)
	return users
}

// Recent returns the last limit entries of messages in original order.
// Fewer than limit stored means all of them.
func Recent(messages []domain.Message, limit int) []domain.Message {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}
