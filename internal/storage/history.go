package storage

import (
	"sync"
	"time"
)

// DefaultHistorySize bounds the interaction history.
const DefaultHistorySize = 100

// InteractionRecord is one completed coaching interaction.
type InteractionRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Transcript string    `json:"transcript"`
	Suggestion string    `json:"suggestion"`
	Phrase     string    `json:"phrase,omitempty"`
	AudioID    string    `json:"audio_id,omitempty"`
	AudioURL   string    `json:"audio_url,omitempty"`
}

// HistoryLog is a bounded, append-only record of interactions. The oldest
// records are evicted first once capacity is exceeded.
type HistoryLog struct {
	mu       sync.RWMutex
	capacity int
	records  []InteractionRecord
}

func NewHistoryLog(capacity int) *HistoryLog {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &HistoryLog{capacity: capacity}
}

func (h *HistoryLog) Append(rec InteractionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, rec)
	if overflow := len(h.records) - h.capacity; overflow > 0 {
		h.records = append(h.records[:0:0], h.records[overflow:]...)
	}
}

// ListDescending returns a snapshot of all records, newest first.
func (h *HistoryLog) ListDescending() []InteractionRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]InteractionRecord, len(h.records))
	for i, rec := range h.records {
		out[len(h.records)-1-i] = rec
	}
	return out
}

func (h *HistoryLog) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}
