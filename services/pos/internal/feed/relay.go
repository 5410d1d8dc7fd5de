package feed

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/pos/pkg/event"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
)

// Relay consumes the changes and urgency topics, keeps the View and the
// ticket cache current and pushes every accepted change to the Hub.
type Relay struct {
	subscriber events.Subscriber
	view       *View
	cache      *kitchen.TicketStateCache
	hub        *Hub
	logger     apt.Logger
}

func NewRelay(sub events.Subscriber, view *View, cache *kitchen.TicketStateCache, hub *Hub, logger apt.Logger) *Relay {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Relay{
		subscriber: sub,
		view:       view,
		cache:      cache,
		hub:        hub,
		logger:     logger,
	}
}

func (r *Relay) Start(ctx context.Context) error {
	if r.subscriber == nil {
		return fmt.Errorf("feed relay not configured")
	}
	r.logger.Info("starting feed relay", "topics", []string{event.ChangesTopic, event.UrgencyTopic})
	if err := r.subscriber.Subscribe(ctx, event.ChangesTopic, r.HandleChange); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.ChangesTopic, err)
	}
	if err := r.subscriber.Subscribe(ctx, event.UrgencyTopic, r.HandleUrgency); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.UrgencyTopic, err)
	}
	return nil
}

// HandleChange applies one change envelope. Malformed messages are dropped so
// the subscription keeps running.
func (r *Relay) HandleChange(ctx context.Context, msg []byte) error {
	c, err := Decode(msg)
	if err != nil {
		r.logger.Info("invalid change event", "error", err)
		return nil
	}

	if r.cache != nil && c.Entity == event.EntityTicket {
		if err := r.cache.Apply(ctx, msg); err != nil {
			r.logger.Debug("ticket cache rejected change", "id", c.ID.String(), "error", err)
		}
	}

	if r.view != nil && !r.view.Apply(c) {
		r.logger.Debug("stale change ignored", "entity", string(c.Entity), "id", c.ID.String())
		return nil
	}

	if r.hub != nil {
		r.hub.Broadcast(Message{Event: string(c.Entity) + "-" + string(c.Op), Data: msg})
	}
	return nil
}

func (r *Relay) HandleUrgency(ctx context.Context, msg []byte) error {
	if r.hub != nil {
		r.hub.Broadcast(Message{Event: event.EventTicketUrgencyChanged, Data: msg})
	}
	return nil
}
