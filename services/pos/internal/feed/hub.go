package feed

import (
	"sync"

	"github.com/appetiteclub/apt"
)

const subscriberBuffer = 100

// Message is one push to browser clients. Event names the SSE event; Data is
// the raw JSON payload.
type Message struct {
	Event string
	Data  []byte
}

// Hub fans messages out to connected SSE and websocket clients. Slow clients
// lose messages rather than block the feed.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Message
	closed      bool
	logger      apt.Logger
}

func NewHub(logger apt.Logger) *Hub {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Hub{
		subscribers: make(map[string]chan Message),
		logger:      logger,
	}
}

// Subscribe registers a client and returns its channel. The channel is closed
// by Unsubscribe or Close.
func (h *Hub) Subscribe(subscriberID string) <-chan Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Message, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch
	}
	if old, ok := h.subscribers[subscriberID]; ok {
		close(old)
	}
	h.subscribers[subscriberID] = ch
	h.logger.Info("new feed subscriber", "subscriber_id", subscriberID, "total_subscribers", len(h.subscribers))
	return ch
}

func (h *Hub) Unsubscribe(subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[subscriberID]; ok {
		close(ch)
		delete(h.subscribers, subscriberID)
		h.logger.Info("feed subscriber disconnected", "subscriber_id", subscriberID, "total_subscribers", len(h.subscribers))
	}
}

// Broadcast sends msg to every subscriber without blocking.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
			h.logger.Info("subscriber channel full, dropping message", "subscriber_id", id, "event", msg.Event)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
	h.closed = true
}
