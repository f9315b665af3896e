package server

import (
	"encoding/json"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sjawhar/ghost-coach/internal/storage"
)

// Hub fans dashboard events out to websocket subscribers. Slow subscribers
// miss events rather than block the webhook path.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *Hub) BroadcastInteraction(rec storage.InteractionRecord) {
	h.broadcastEvent(InteractionEvent{
		Event:  newEvent("interaction", rec.Timestamp),
		Record: rec,
	})
}

func (h *Hub) BroadcastConversationEnded(reason string) {
	h.broadcastEvent(ConversationEndedEvent{
		Event:  newEvent("conversation_ended", time.Now().UTC()),
		Reason: reason,
	})
}

func (h *Hub) broadcastEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("event marshal failed")
		return
	}
	h.Broadcast(payload)
}
