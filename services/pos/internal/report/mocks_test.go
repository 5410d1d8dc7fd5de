package report

import (
	"context"
	"errors"

	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/google/uuid"
)

var errStub = errors.New("stub failure")

// stubSource hands back fixed slices; the report functions do the range
// filtering themselves.
type stubSource struct {
	orders   []*order.Order
	tickets  []*kitchen.Ticket
	payments []*order.Payment
	fail     bool
}

func (s *stubSource) Orders() order.Repository { return stubOrders{s} }
func (s *stubSource) Tickets() kitchen.TicketRepository { return stubTickets{s} }
func (s *stubSource) Payments() order.PaymentRepository { return stubPayments{s} }

type stubOrders struct{ s *stubSource }

func (r stubOrders) Create(ctx context.Context, o *order.Order) error { return errStub }
func (r stubOrders) Update(ctx context.Context, o *order.Order) error { return errStub }

func (r stubOrders) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return nil, order.ErrOrderNotFound
}

func (r stubOrders) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	if r.s.fail {
		return nil, errStub
	}
	return r.s.orders, nil
}

type stubTickets struct{ s *stubSource }

func (r stubTickets) Create(ctx context.Context, t *kitchen.Ticket) error { return errStub }
func (r stubTickets) Update(ctx context.Context, t *kitchen.Ticket) error { return errStub }

func (r stubTickets) FindByID(ctx context.Context, id uuid.UUID) (*kitchen.Ticket, error) {
	return nil, kitchen.ErrTicketNotFound
}

func (r stubTickets) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*kitchen.Ticket, error) {
	return nil, nil
}

func (r stubTickets) List(ctx context.Context, f kitchen.TicketFilter) ([]*kitchen.Ticket, error) {
	if r.s.fail {
		return nil, errStub
	}
	return r.s.tickets, nil
}

type stubPayments struct{ s *stubSource }

func (r stubPayments) Create(ctx context.Context, p *order.Payment) error { return errStub }

func (r stubPayments) FindByID(ctx context.Context, id uuid.UUID) (*order.Payment, error) {
	return nil, order.ErrPaymentNotFound
}

func (r stubPayments) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*order.Payment, error) {
	return nil, nil
}

func (r stubPayments) List(ctx context.Context, f order.PaymentFilter) ([]*order.Payment, error) {
	if r.s.fail {
		return nil, errStub
	}
	return r.s.payments, nil
}
