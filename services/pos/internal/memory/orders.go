package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/appetiteclub/pos/services/pos/internal/pos"
	"github.com/google/uuid"
)

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.orders[o.ID]; ok {
			return fmt.Errorf("%w: order %s exists", pos.ErrConflict, o.ID)
		}
		r.s.orders[o.ID] = o.Clone()
		return nil
	})
}

func (r *orderRepo) Update(ctx context.Context, o *order.Order) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.orders[o.ID]; !ok {
			return order.ErrOrderNotFound
		}
		r.s.orders[o.ID] = o.Clone()
		return nil
	})
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var found *order.Order
	err := r.s.read(ctx, func() error {
		o, ok := r.s.orders[id]
		if !ok {
			return order.ErrOrderNotFound
		}
		found = o.Clone()
		return nil
	})
	return found, err
}

func (r *orderRepo) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	var out []*order.Order
	err := r.s.read(ctx, func() error {
		for _, o := range r.s.orders {
			if matchOrder(o, f) {
				out = append(out, o.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchOrder(o *order.Order, f order.Filter) bool {
	switch {
	case f.BillStatus != "" && o.BillStatus != f.BillStatus:
		return false
	case f.Status != "" && o.Status != f.Status:
		return false
	case f.Type != "" && o.Type != f.Type:
		return false
	case f.CreatedFrom != nil && o.CreatedAt.Before(*f.CreatedFrom):
		return false
	case f.CreatedTo != nil && !o.CreatedAt.Before(*f.CreatedTo):
		return false
	}
	return true
}

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Create(ctx context.Context, p *order.Payment) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.payments[p.ID]; ok {
			return fmt.Errorf("%w: payment %s exists", pos.ErrConflict, p.ID)
		}
		cp := *p
		r.s.payments[p.ID] = &cp
		return nil
	})
}

func (r *paymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*order.Payment, error) {
	var found *order.Payment
	err := r.s.read(ctx, func() error {
		p, ok := r.s.payments[id]
		if !ok {
			return order.ErrPaymentNotFound
		}
		cp := *p
		found = &cp
		return nil
	})
	return found, err
}

func (r *paymentRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*order.Payment, error) {
	return r.list(ctx, func(p *order.Payment) bool { return p.OrderID == orderID })
}

func (r *paymentRepo) List(ctx context.Context, f order.PaymentFilter) ([]*order.Payment, error) {
	return r.list(ctx, func(p *order.Payment) bool {
		switch {
		case f.Method != "" && p.Method != f.Method:
			return false
		case f.From != nil && p.CreatedAt.Before(*f.From):
			return false
		case f.To != nil && !p.CreatedAt.Before(*f.To):
			return false
		}
		return true
	})
}

func (r *paymentRepo) list(ctx context.Context, keep func(*order.Payment) bool) ([]*order.Payment, error) {
	var out []*order.Payment
	err := r.s.read(ctx, func() error {
		for _, p := range r.s.payments {
			if keep(p) {
				cp := *p
				out = append(out, &cp)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
