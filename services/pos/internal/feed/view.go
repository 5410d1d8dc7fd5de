package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/pos/pkg/event"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/google/uuid"
)

// View is a client-side replica of orders, tickets and payments fed by
// changes. Applying the same change twice, or changes out of order, converges
// on the newest state per record.
type View struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*order.Order
	tickets  map[uuid.UUID]*kitchen.Ticket
	payments map[uuid.UUID]*order.Payment
	deleted  map[uuid.UUID]time.Time

	logger apt.Logger
}

func NewView(logger apt.Logger) *View {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &View{
		orders:   make(map[uuid.UUID]*order.Order),
		tickets:  make(map[uuid.UUID]*kitchen.Ticket),
		payments: make(map[uuid.UUID]*order.Payment),
		deleted:  make(map[uuid.UUID]time.Time),
		logger:   logger,
	}
}

// Apply folds c into the view and reports whether anything changed. Records
// older than what the view holds are ignored; an equal version replaces.
func (v *View) Apply(c Change) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	version := c.Version()
	if at, ok := v.deleted[c.ID]; ok && !version.After(at) {
		return false
	}
	current, ok := v.versionLocked(c.Entity, c.ID)
	if ok && current.After(version) {
		return false
	}

	if c.Op == event.OpDelete {
		delete(v.orders, c.ID)
		delete(v.tickets, c.ID)
		delete(v.payments, c.ID)
		v.deleted[c.ID] = version
		return true
	}

	switch c.Entity {
	case event.EntityOrder:
		if c.Order == nil {
			return false
		}
		v.orders[c.ID] = c.Order.Clone()
	case event.EntityTicket:
		if c.Ticket == nil {
			return false
		}
		v.tickets[c.ID] = c.Ticket.Clone()
	case event.EntityPayment:
		if c.Payment == nil {
			return false
		}
		p := *c.Payment
		v.payments[c.ID] = &p
	default:
		return false
	}
	return true
}

// ApplyMessage decodes and applies one change envelope. It matches
// events.HandlerFunc.
func (v *View) ApplyMessage(ctx context.Context, data []byte) error {
	c, err := Decode(data)
	if err != nil {
		return err
	}
	v.Apply(c)
	return nil
}

// Warm replays a change stream into the view.
func (v *View) Warm(ctx context.Context, stream events.StreamConsumer, limit int) (int, error) {
	msgs, err := stream.Fetch(ctx, limit)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, m := range msgs {
		c, err := Decode(m.Data)
		if err != nil {
			v.logger.Debug("skipping replayed change", "sequence", m.Sequence, "error", err)
			continue
		}
		if v.Apply(c) {
			applied++
		}
	}
	v.logger.Info("view warmed from stream", "messages", len(msgs), "applied", applied)
	return applied, nil
}

func (v *View) versionLocked(entity event.Entity, id uuid.UUID) (time.Time, bool) {
	switch entity {
	case event.EntityOrder:
		if o, ok := v.orders[id]; ok {
			return o.UpdatedAt, true
		}
	case event.EntityTicket:
		if t, ok := v.tickets[id]; ok {
			return t.UpdatedAt, true
		}
	case event.EntityPayment:
		if p, ok := v.payments[id]; ok {
			return p.CreatedAt, true
		}
	}
	return time.Time{}, false
}

func (v *View) Order(id uuid.UUID) (*order.Order, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	o, ok := v.orders[id]
	return o.Clone(), ok
}

// Orders returns every order, newest first.
func (v *View) Orders() []*order.Order {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*order.Order, 0, len(v.orders))
	for _, o := range v.orders {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (v *View) Ticket(id uuid.UUID) (*kitchen.Ticket, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	t, ok := v.tickets[id]
	return t.Clone(), ok
}

// Tickets returns the order's tickets, oldest first.
func (v *View) Tickets(orderID uuid.UUID) []*kitchen.Ticket {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []*kitchen.Ticket
	for _, t := range v.tickets {
		if t.OrderID == orderID {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Payments returns the order's payments, oldest first.
func (v *View) Payments(orderID uuid.UUID) []*order.Payment {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []*order.Payment
	for _, p := range v.payments {
		if p.OrderID == orderID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Snapshot is the view's full state for clients joining the feed.
type Snapshot struct {
	Orders   []*order.Order    `json:"orders"`
	Tickets  []*kitchen.Ticket `json:"tickets"`
	Payments []*order.Payment  `json:"payments"`
}

func (v *View) Snapshot() Snapshot {
	orders := v.Orders()
	s := Snapshot{Orders: orders, Tickets: []*kitchen.Ticket{}, Payments: []*order.Payment{}}
	for _, o := range orders {
		s.Tickets = append(s.Tickets, v.Tickets(o.ID)...)
		s.Payments = append(s.Payments, v.Payments(o.ID)...)
	}
	return s
}
