package pos

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/pos/pkg/event"
	"github.com/appetiteclub/pos/services/pos/internal/auth"
	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service runs the order lifecycle against a Store. Every mutation commits
// in one transaction and is announced on the changes topic afterwards.
type Service struct {
	store     Store
	publisher events.Publisher
	cache     *kitchen.TicketStateCache
	policy    order.Policy
	sla       kitchen.SLA
	clock     func() time.Time
	suffix    func() int
	audit     *AuditLogger
	logger    apt.Logger
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithTicketCache keeps the board cache in step with committed ticket writes.
func WithTicketCache(c *kitchen.TicketStateCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithTaxRate(rate decimal.Decimal) Option {
	return func(s *Service) { s.policy.TaxRate = rate }
}

func WithSLA(sla kitchen.SLA) Option {
	return func(s *Service) { s.sla = sla }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithQueueSuffix replaces the random two digit queue number suffix.
func WithQueueSuffix(fn func() int) Option {
	return func(s *Service) { s.suffix = fn }
}

func WithLogger(l apt.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		policy: order.Policy{TaxRate: decimal.Zero},
		sla:    kitchen.DefaultSLA(),
		clock:  time.Now,
		suffix: func() int { return rand.IntN(100) },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = apt.NewNoopLogger()
	}
	s.audit = NewAuditLogger(s.logger)
	return s
}

func (s *Service) SLA() kitchen.SLA {
	return s.sla
}

type LineRequest struct {
	MenuItemID  uuid.UUID   `json:"menu_item_id"`
	Quantity    int         `json:"quantity"`
	ModifierIDs []uuid.UUID `json:"modifier_ids,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

type SubmitRequest struct {
	ID           uuid.UUID     `json:"id,omitempty"`
	Type         string        `json:"type"`
	TableNumber  string        `json:"table_number,omitempty"`
	ContactInfo  string        `json:"contact_info,omitempty"`
	Platform     string        `json:"platform,omitempty"`
	CustomerName string        `json:"customer_name,omitempty"`
	Lines        []LineRequest `json:"lines"`
}

func (r SubmitRequest) details() order.Details {
	return order.Details{
		ID:           r.ID,
		Type:         r.Type,
		TableNumber:  r.TableNumber,
		ContactInfo:  r.ContactInfo,
		Platform:     r.Platform,
		CustomerName: r.CustomerName,
	}
}

type Submission struct {
	Order   *order.Order      `json:"order"`
	Tickets []*kitchen.Ticket `json:"tickets"`
	// Replayed is set when the order id already existed and nothing was
	// written.
	Replayed bool `json:"replayed"`
}

// BuildCart resolves request lines against the menu.
func (s *Service) BuildCart(ctx context.Context, lines []LineRequest) (*order.Cart, error) {
	cart := order.NewCart()
	for _, l := range lines {
		item, err := s.store.Menu().Get(ctx, l.MenuItemID)
		if errors.Is(err, catalog.ErrMenuItemNotFound) {
			return nil, fmt.Errorf("%w: unknown menu item %s", order.ErrItemUnavailable, l.MenuItemID)
		}
		if err != nil {
			return nil, err
		}
		if _, err := cart.AddItem(item, l.Quantity, l.ModifierIDs, l.Notes); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

// SubmitOrder builds a cart from req and checks it out.
func (s *Service) SubmitOrder(ctx context.Context, req SubmitRequest) (*Submission, error) {
	if req.ID != uuid.Nil {
		if sub, err := s.existingSubmission(ctx, req.ID); err != nil || sub != nil {
			return sub, err
		}
	}

	cart, err := s.BuildCart(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	return s.Checkout(ctx, cart, req.details())
}

// Checkout validates cart, writes the order and its station tickets in one
// transaction and publishes the inserts. The cart is never cleared here.
func (s *Service) Checkout(ctx context.Context, cart *order.Cart, d order.Details) (*Submission, error) {
	now := s.clock()
	actor := auth.ActorFrom(ctx)

	o, err := order.Submit(cart, d, s.policy, order.QueueNumber(now, s.suffix()), actor, now)
	if err != nil {
		return nil, err
	}
	tickets := order.Route(o, s.sla, now)

	var replay *Submission
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		replay = nil
		if d.ID != uuid.Nil {
			existing, err := s.existingSubmission(ctx, d.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				replay = existing
				return nil
			}
		}
		if err := s.store.Orders().Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for _, t := range tickets {
			if err := s.store.Tickets().Create(ctx, t); err != nil {
				return fmt.Errorf("create ticket for %s: %w", t.Station, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("cannot submit order", "order_id", o.ID.String(), "error", err)
		return nil, err
	}
	if replay != nil {
		return replay, nil
	}

	s.logger.Info("order submitted", "order_id", o.ID.String(), "queue_number", o.QueueNumber, "tickets", len(tickets))
	s.audit.LogResult(ctx, "submit-order", o.ID.String(), o.QueueNumber, now, nil)

	s.publish(ctx, event.OpInsert, event.EntityOrder, o.ID, o, now)
	for _, t := range tickets {
		s.cacheTicket(t)
		s.publish(ctx, event.OpInsert, event.EntityTicket, t.ID, t, now)
	}
	return &Submission{Order: o, Tickets: tickets}, nil
}

func (s *Service) existingSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	o, err := s.store.Orders().FindByID(ctx, id)
	if errors.Is(err, order.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tickets, err := s.store.Tickets().FindByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Submission{Order: o, Tickets: tickets, Replayed: true}, nil
}

// OrderView is an order with its tickets and ledger.
type OrderView struct {
	*order.Order
	Tickets  []kitchen.TicketView `json:"tickets"`
	Payments []*order.Payment     `json:"payments"`
	Paid     decimal.Decimal      `json:"paid"`
	Balance  decimal.Decimal      `json:"balance"`
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	o, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tickets, err := s.store.Tickets().FindByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Payments().ListByOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	views := make([]kitchen.TicketView, 0, len(tickets))
	for _, t := range tickets {
		views = append(views, kitchen.NewTicketView(t, now))
	}
	ledger := order.NewLedger(o.ID, o.Total, payments)
	return &OrderView{
		Order:    o,
		Tickets:  views,
		Payments: payments,
		Paid:     ledger.Paid(),
		Balance:  ledger.Balance(),
	}, nil
}

func (s *Service) ListOrders(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	return s.store.Orders().List(ctx, f)
}

func (s *Service) ListPayments(ctx context.Context, orderID uuid.UUID) ([]*order.Payment, error) {
	if _, err := s.store.Orders().FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.store.Payments().ListByOrder(ctx, orderID)
}

// Today returns the [start, end) bounds of the local business day holding now.
func (s *Service) Today() (time.Time, time.Time) {
	now := s.clock()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// AdvanceTicket moves a ticket one step and recomputes its order's
// fulfillment status in the same transaction.
func (s *Service) AdvanceTicket(ctx context.Context, id uuid.UUID, action kitchen.Action) (*kitchen.Ticket, error) {
	now := s.clock()

	var ticket *kitchen.Ticket
	var changedOrder *order.Order
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		ticket, changedOrder = nil, nil
		t, err := s.store.Tickets().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := t.Apply(action, now); err != nil {
			return err
		}
		if err := s.store.Tickets().Update(ctx, t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		ticket = t

		o, err := s.store.Orders().FindByID(ctx, t.OrderID)
		if err != nil {
			return err
		}
		siblings, err := s.store.Tickets().FindByOrderID(ctx, t.OrderID)
		if err != nil {
			return err
		}
		for i := range siblings {
			if siblings[i].ID == t.ID {
				siblings[i] = t
			}
		}
		if o.ApplyTickets(siblings, now) {
			if err := s.store.Orders().Update(ctx, o); err != nil {
				return fmt.Errorf("update order: %w", err)
			}
			changedOrder = o
		}
		return nil
	})
	s.audit.LogResult(ctx, "ticket-"+string(action), id.String(), "", now, err)
	if err != nil {
		return nil, err
	}

	s.cacheTicket(ticket)
	s.publish(ctx, event.OpUpdate, event.EntityTicket, ticket.ID, ticket, now)
	if changedOrder != nil {
		s.publish(ctx, event.OpUpdate, event.EntityOrder, changedOrder.ID, changedOrder, now)
	}
	return ticket, nil
}

func (s *Service) SetTicketPriority(ctx context.Context, id uuid.UUID, p kitchen.Priority) (*kitchen.Ticket, error) {
	now := s.clock()

	var ticket *kitchen.Ticket
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		ticket = nil
		t, err := s.store.Tickets().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := t.SetPriority(p, now); err != nil {
			return err
		}
		if err := s.store.Tickets().Update(ctx, t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheTicket(ticket)
	s.publish(ctx, event.OpUpdate, event.EntityTicket, ticket.ID, ticket, now)
	return ticket, nil
}

type PaymentResult struct {
	Payment *order.Payment  `json:"payment"`
	Order   *order.Order    `json:"order"`
	Paid    decimal.Decimal `json:"paid"`
	Balance decimal.Decimal `json:"balance"`
	// Replayed is set when the payment id was already recorded.
	Replayed bool `json:"replayed"`
}

// RecordPayment appends a payment and flips the bill status in the same
// transaction. A payment id that is already on the ledger returns the stored
// payment.
func (s *Service) RecordPayment(ctx context.Context, orderID uuid.UUID, in order.PaymentInput) (*PaymentResult, error) {
	now := s.clock()
	actor := auth.ActorFrom(ctx)

	var result PaymentResult
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		result = PaymentResult{}
		o, err := s.store.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		if in.ID != uuid.Nil {
			stored, err := s.store.Payments().FindByID(ctx, in.ID)
			switch {
			case err == nil && stored.OrderID != orderID:
				return fmt.Errorf("%w: payment %s belongs to another order", ErrConflict, in.ID)
			case err != nil && !errors.Is(err, order.ErrPaymentNotFound):
				return err
			}
		}

		payments, err := s.store.Payments().ListByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		ledger := order.NewLedger(o.ID, o.Total, payments)

		if in.ID != uuid.Nil {
			if p, ok := ledger.Find(in.ID); ok {
				result = PaymentResult{Payment: p, Order: o, Paid: ledger.Paid(), Balance: ledger.Balance(), Replayed: true}
				return nil
			}
		}
		if o.IsCancelled() {
			return order.ErrOrderCancelled
		}

		p, _, err := ledger.Record(in, actor, now)
		if err != nil {
			return err
		}
		if err := s.store.Payments().Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		// Every payment rewrites the order, so two payments against the same
		// order always conflict and one of them re-reads the ledger.
		o.Reconcile(ledger, now)
		o.UpdatedAt = now
		if err := s.store.Orders().Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		result = PaymentResult{Payment: p, Order: o, Paid: ledger.Paid(), Balance: ledger.Balance()}
		return nil
	})
	if err != nil {
		s.audit.LogResult(ctx, "record-payment", orderID.String(), in.Method, now, err)
		return nil, err
	}
	if result.Replayed {
		return &result, nil
	}

	p := result.Payment
	s.audit.LogResult(ctx, "record-payment", orderID.String(), p.Method+" "+p.Amount.StringFixed(2), now, nil)
	s.publish(ctx, event.OpInsert, event.EntityPayment, p.ID, p, now)
	s.publish(ctx, event.OpUpdate, event.EntityOrder, result.Order.ID, result.Order, now)
	return &result, nil
}

// VoidOrder cancels an order and its open tickets. Payments stay on the
// ledger. Voiding a cancelled order returns it unchanged.
func (s *Service) VoidOrder(ctx context.Context, orderID uuid.UUID, note string) (*order.Order, error) {
	now := s.clock()
	actor := auth.ActorFrom(ctx)

	var voided *order.Order
	var changed bool
	var cancelled []*kitchen.Ticket
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		voided, changed, cancelled = nil, false, nil
		o, err := s.store.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		voided = o

		changed, err = o.Void(note, actor, now)
		if err != nil || !changed {
			return err
		}
		if err := s.store.Orders().Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		tickets, err := s.store.Tickets().FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			if !t.IsOpen() {
				continue
			}
			if err := t.Cancel(now); err != nil {
				return err
			}
			if err := s.store.Tickets().Update(ctx, t); err != nil {
				return fmt.Errorf("update ticket: %w", err)
			}
			cancelled = append(cancelled, t)
		}
		return nil
	})
	s.audit.LogResult(ctx, "void-order", orderID.String(), note, now, err)
	if err != nil {
		return nil, err
	}
	if !changed {
		return voided, nil
	}

	s.publish(ctx, event.OpUpdate, event.EntityOrder, voided.ID, voided, now)
	for _, t := range cancelled {
		if s.cache != nil {
			s.cache.Remove(t.ID)
		}
		s.publish(ctx, event.OpUpdate, event.EntityTicket, t.ID, t, now)
	}
	return voided, nil
}

func (s *Service) cacheTicket(t *kitchen.Ticket) {
	if s.cache != nil {
		s.cache.SetIfNewer(t)
	}
}

// publish announces a committed change. Failures are only logged.
func (s *Service) publish(ctx context.Context, op event.Op, entity event.Entity, id uuid.UUID, record any, at time.Time) {
	if s.publisher == nil {
		return
	}
	payload, err := event.Encode(op, entity, id.String(), at, record)
	if err != nil {
		s.logger.Error("cannot encode change", "entity", string(entity), "id", id.String(), "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event.ChangesTopic, payload); err != nil {
		s.logger.Error("cannot publish change", "entity", string(entity), "id", id.String(), "error", err)
	}
}
