package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/pos"
	"github.com/google/uuid"
)

type ticketRepo struct{ s *Store }

func (r *ticketRepo) Create(ctx context.Context, t *kitchen.Ticket) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.tickets[t.ID]; ok {
			return fmt.Errorf("%w: ticket %s exists", pos.ErrConflict, t.ID)
		}
		r.s.tickets[t.ID] = t.Clone()
		return nil
	})
}

func (r *ticketRepo) Update(ctx context.Context, t *kitchen.Ticket) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.tickets[t.ID]; !ok {
			return kitchen.ErrTicketNotFound
		}
		r.s.tickets[t.ID] = t.Clone()
		return nil
	})
}

func (r *ticketRepo) FindByID(ctx context.Context, id uuid.UUID) (*kitchen.Ticket, error) {
	var found *kitchen.Ticket
	err := r.s.read(ctx, func() error {
		t, ok := r.s.tickets[id]
		if !ok {
			return kitchen.ErrTicketNotFound
		}
		found = t.Clone()
		return nil
	})
	return found, err
}

func (r *ticketRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*kitchen.Ticket, error) {
	return r.List(ctx, kitchen.TicketFilter{OrderID: &orderID})
}

func (r *ticketRepo) List(ctx context.Context, f kitchen.TicketFilter) ([]*kitchen.Ticket, error) {
	var out []*kitchen.Ticket
	err := r.s.read(ctx, func() error {
		for _, t := range r.s.tickets {
			if matchTicket(t, f) {
				out = append(out, t.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Station < out[j].Station
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchTicket(t *kitchen.Ticket, f kitchen.TicketFilter) bool {
	switch {
	case f.OrderID != nil && t.OrderID != *f.OrderID:
		return false
	case f.Station != "" && t.Station != f.Station:
		return false
	case len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status):
		return false
	case f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom):
		return false
	case f.CreatedTo != nil && !t.CreatedAt.Before(*f.CreatedTo):
		return false
	}
	return true
}
