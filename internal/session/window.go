package session

import (
	"strings"
	"sync"
)

// DefaultWindowSize is how many recent fragments a ContextWindow keeps.
const DefaultWindowSize = 5

// TailSeparator joins context entries when building a coaching prompt.
const TailSeparator = " | "

// ContextWindow holds the most recent transcript fragments of the current
// conversation, oldest first. Appends past capacity evict from the front.
type ContextWindow struct {
	mu       sync.Mutex
	capacity int
	entries  []string
}

// NewContextWindow creates an empty window. Non-positive capacities fall back
// to DefaultWindowSize.
func NewContextWindow(capacity int) *ContextWindow {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &ContextWindow{capacity: capacity}
}

// Append adds text to the end of the window and evicts the oldest entries
// beyond capacity.
func (w *ContextWindow) Append(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries = append(w.entries, text)
	if overflow := len(w.entries) - w.capacity; overflow > 0 {
		w.entries = append(w.entries[:0:0], w.entries[overflow:]...)
	}
}

// Tail returns a copy of the last n entries in insertion order.
func (w *ContextWindow) Tail(n int) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if n <= 0 || len(w.entries) == 0 {
		return nil
	}
	if n > len(w.entries) {
		n = len(w.entries)
	}
	out := make([]string, n)
	copy(out, w.entries[len(w.entries)-n:])
	return out
}

// Joined returns Tail(n) joined with TailSeparator.
func (w *ContextWindow) Joined(n int) string {
	return strings.Join(w.Tail(n), TailSeparator)
}

// Clear empties the window. Clearing an empty window is a no-op.
func (w *ContextWindow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = nil
}

// Len returns the number of entries currently held.
func (w *ContextWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Capacity returns the configured bound.
func (w *ContextWindow) Capacity() int {
	return w.capacity
}
