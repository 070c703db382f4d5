// Package domain contains core concepts of the chat room.
// This file defines Message and related rules.
// Messages are immutable once accepted by the feed service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one immutable entry of the append-only log.
type Message struct {
	ID   uuid.UUID // unique identifier
	User string    // free-text display name, never empty
	Text string    // body, never empty after trim
	Lang string    // best-effort ISO 639-1 tag, empty when undetectable
	At   time.Time // acceptance time, second precision, deployment time zone
}

// RefreshResult is what one poll tick hands back to the presentation layer.
// Messages and Online are derived from the same fetched batch and the same now.
type RefreshResult struct {
	Messages []Message
	Online   []string
	At       time.Time
}
