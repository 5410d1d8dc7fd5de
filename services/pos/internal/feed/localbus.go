package feed

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
)

// LocalBus is an in-process publisher and subscriber used when no NATS
// server is configured. Handlers run synchronously on the publishing
// goroutine.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]events.HandlerFunc
	logger   apt.Logger
}

func NewLocalBus(logger apt.Logger) *LocalBus {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &LocalBus{
		handlers: make(map[string][]events.HandlerFunc),
		logger:   logger,
	}
}

func (b *LocalBus) Publish(ctx context.Context, topic string, msg []byte) error {
	b.mu.RLock()
	handlers := append([]events.HandlerFunc(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, msg); err != nil {
			b.logger.Error("local handler failed", "topic", topic, "error", err)
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]events.HandlerFunc)
	return nil
}
