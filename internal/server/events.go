package server

import (
	"time"

	"github.com/sjawhar/ghost-coach/internal/storage"
)

const EventVersion = 1

type Event struct {
	Type      string `json:"type"`
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
}

type InteractionEvent struct {
	Event
	Record storage.InteractionRecord `json:"record"`
}

type ConversationEndedEvent struct {
	Event
	Reason string `json:"reason"`
}

type ConnectionEvent struct {
	Event
	Connected bool `json:"connected"`
}

func newEvent(eventType string, now time.Time) Event {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return Event{
		Type:      eventType,
		Version:   EventVersion,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
