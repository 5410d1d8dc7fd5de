package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/appetiteclub/pos/pkg/event"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/google/uuid"
)

// Change is a decoded change envelope. Exactly one of Order, Ticket and
// Payment is set for inserts and updates, matching Entity.
type Change struct {
	Op      event.Op
	Entity  event.Entity
	ID      uuid.UUID
	At      time.Time
	Order   *order.Order
	Ticket  *kitchen.Ticket
	Payment *order.Payment
}

func OrderChange(op event.Op, o *order.Order) Change {
	return Change{Op: op, Entity: event.EntityOrder, ID: o.ID, At: o.UpdatedAt, Order: o}
}

func TicketChange(op event.Op, t *kitchen.Ticket) Change {
	return Change{Op: op, Entity: event.EntityTicket, ID: t.ID, At: t.UpdatedAt, Ticket: t}
}

func PaymentChange(p *order.Payment) Change {
	return Change{Op: event.OpInsert, Entity: event.EntityPayment, ID: p.ID, At: p.CreatedAt, Payment: p}
}

func DeleteChange(entity event.Entity, id uuid.UUID, at time.Time) Change {
	return Change{Op: event.OpDelete, Entity: entity, ID: id, At: at}
}

// Version is the timestamp last-write-wins compares. Payments never change
// after creation so their CreatedAt is used.
func (c Change) Version() time.Time {
	switch {
	case c.Op == event.OpDelete:
		return c.At
	case c.Order != nil:
		return c.Order.UpdatedAt
	case c.Ticket != nil:
		return c.Ticket.UpdatedAt
	case c.Payment != nil:
		return c.Payment.CreatedAt
	}
	return c.At
}

// Decode turns a wire envelope into a Change.
func Decode(data []byte) (Change, error) {
	env, err := event.Decode(data)
	if err != nil {
		return Change{}, fmt.Errorf("decode envelope: %w", err)
	}
	id, err := uuid.Parse(env.ID)
	if err != nil {
		return Change{}, fmt.Errorf("decode %s id: %w", env.Entity, err)
	}

	c := Change{Op: env.Op, Entity: env.Entity, ID: id, At: env.OccurredAt}
	if env.Op == event.OpDelete {
		return c, nil
	}

	var target any
	switch env.Entity {
	case event.EntityOrder:
		c.Order = &order.Order{}
		target = c.Order
	case event.EntityTicket:
		c.Ticket = &kitchen.Ticket{}
		target = c.Ticket
	case event.EntityPayment:
		c.Payment = &order.Payment{}
		target = c.Payment
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return Change{}, fmt.Errorf("decode %s: %w", env.Entity, err)
	}
	return c, nil
}
