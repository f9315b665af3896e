package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sjawhar/ghost-coach/internal/storage"
)

func TestEventSerialization(t *testing.T) {
	events := []any{
		InteractionEvent{Event: newEvent("interaction", time.Unix(1, 0)), Record: storage.InteractionRecord{ID: "r1", Transcript: "Oi, tudo bem?"}},
		ConversationEndedEvent{Event: newEvent("conversation_ended", time.Unix(1, 0)), Reason: "memory_created"},
		ConnectionEvent{Event: newEvent("connection", time.Unix(1, 0)), Connected: true},
	}

	for _, event := range events {
		b, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var payload map[string]any
		if err := json.Unmarshal(b, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if payload["type"] == nil {
			t.Fatalf("missing type in payload: %s", string(b))
		}
		if payload["version"] == nil {
			t.Fatalf("missing version in payload: %s", string(b))
		}
		if payload["timestamp"] == nil {
			t.Fatalf("missing timestamp in payload: %s", string(b))
		}
	}
}

func TestNewEventZeroTimeUsesNow(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	ev := newEvent("interaction", time.Time{})

	ts, err := time.Parse(time.RFC3339Nano, ev.Timestamp)
	if err != nil {
		t.Fatalf("parse timestamp: %v", err)
	}
	if ts.Before(before) {
		t.Fatalf("expected a current timestamp, got %s", ev.Timestamp)
	}
}
