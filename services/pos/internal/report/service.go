package report

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
)

// Source is the read side the reports need. pos.Store satisfies it.
type Source interface {
	Orders() order.Repository
	Tickets() kitchen.TicketRepository
	Payments() order.PaymentRepository
}

type Service struct {
	source Source
	clock  func() time.Time
}

func NewService(source Source, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{source: source, clock: clock}
}

// Now is the service clock; handlers use it to default ranges.
func (s *Service) Now() time.Time {
	return s.clock()
}

func (s *Service) Daily(ctx context.Context, day time.Time) (DailySummary, error) {
	from := startOfDay(day)
	to := from.AddDate(0, 0, 1)
	orders, err := s.source.Orders().List(ctx, order.Filter{CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return DailySummary{}, fmt.Errorf("cannot load orders: %w", err)
	}
	return Daily(orders, day), nil
}

func (s *Service) Sales(ctx context.Context, from, to time.Time) (SalesReport, error) {
	orders, err := s.source.Orders().List(ctx, order.Filter{CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return SalesReport{}, fmt.Errorf("cannot load orders: %w", err)
	}
	payments, err := s.source.Payments().List(ctx, order.PaymentFilter{From: &from, To: &to})
	if err != nil {
		return SalesReport{}, fmt.Errorf("cannot load payments: %w", err)
	}
	return Sales(orders, payments, from, to), nil
}

func (s *Service) Kitchen(ctx context.Context, from, to time.Time) (KitchenPerformance, error) {
	tickets, err := s.source.Tickets().List(ctx, kitchen.TicketFilter{CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return KitchenPerformance{}, fmt.Errorf("cannot load tickets: %w", err)
	}
	return Kitchen(tickets, from, to), nil
}
