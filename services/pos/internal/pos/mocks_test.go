package pos

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"

	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/google/uuid"
)

// fakeStore keeps records in maps. InTx restores the maps when fn fails.
type fakeStore struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*order.Order
	tickets  map[uuid.UUID]*kitchen.Ticket
	payments map[uuid.UUID]*order.Payment
	menu     map[uuid.UUID]*catalog.MenuItem

	failTicketCreate bool
	failOrderUpdate  bool

	// retries reruns each committed transaction this many times from a
	// restored snapshot, the way a driver retries a transient abort.
	retries      int
	txCount      int
	orderUpdates int
}

func newFakeStore(items ...*catalog.MenuItem) *fakeStore {
	s := &fakeStore{
		orders:   make(map[uuid.UUID]*order.Order),
		tickets:  make(map[uuid.UUID]*kitchen.Ticket),
		payments: make(map[uuid.UUID]*order.Payment),
		menu:     make(map[uuid.UUID]*catalog.MenuItem),
	}
	for _, it := range items {
		s.menu[it.ID] = it
	}
	return s
}

func (s *fakeStore) Orders() order.Repository { return fakeOrders{s} }
func (s *fakeStore) Tickets() kitchen.TicketRepository { return fakeTickets{s} }
func (s *fakeStore) Payments() order.PaymentRepository { return fakePayments{s} }
func (s *fakeStore) Menu() catalog.Repo { return fakeMenu{s} }

func (s *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.txCount++
	orders := maps.Clone(s.orders)
	tickets := maps.Clone(s.tickets)
	payments := maps.Clone(s.payments)
	s.mu.Unlock()

	restore := func() {
		s.mu.Lock()
		s.orders, s.tickets, s.payments = maps.Clone(orders), maps.Clone(tickets), maps.Clone(payments)
		s.mu.Unlock()
	}

	for attempt := 0; ; attempt++ {
		if err := fn(ctx); err != nil {
			restore()
			return err
		}
		if attempt >= s.retries {
			return nil
		}
		restore()
	}
}

type fakeOrders struct{ s *fakeStore }

func (r fakeOrders) Create(ctx context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[o.ID]; ok {
		return ErrConflict
	}
	r.s.orders[o.ID] = o.Clone()
	return nil
}

func (r fakeOrders) Update(ctx context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOrderUpdate {
		return ErrUnavailable
	}
	r.s.orderUpdates++
	if _, ok := r.s.orders[o.ID]; !ok {
		return order.ErrOrderNotFound
	}
	r.s.orders[o.ID] = o.Clone()
	return nil
}

func (r fakeOrders) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (r fakeOrders) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*order.Order
	for _, o := range r.s.orders {
		if f.BillStatus != "" && o.BillStatus != f.BillStatus {
			continue
		}
		out = append(out, o.Clone())
	}
	return out, nil
}

type fakeTickets struct{ s *fakeStore }

func (r fakeTickets) Create(ctx context.Context, t *kitchen.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failTicketCreate {
		return ErrUnavailable
	}
	r.s.tickets[t.ID] = t.Clone()
	return nil
}

func (r fakeTickets) Update(ctx context.Context, t *kitchen.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tickets[t.ID] = t.Clone()
	return nil
}

func (r fakeTickets) FindByID(ctx context.Context, id uuid.UUID) (*kitchen.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, kitchen.ErrTicketNotFound
	}
	return t.Clone(), nil
}

func (r fakeTickets) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*kitchen.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*kitchen.Ticket
	for _, t := range r.s.tickets {
		if t.OrderID == orderID {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })
	return out, nil
}

func (r fakeTickets) List(ctx context.Context, f kitchen.TicketFilter) ([]*kitchen.Ticket, error) {
	return nil, errors.New("not implemented")
}

type fakePayments struct{ s *fakeStore }

func (r fakePayments) Create(ctx context.Context, p *order.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[p.ID]; ok {
		return ErrConflict
	}
	cp := *p
	r.s.payments[p.ID] = &cp
	return nil
}

func (r fakePayments) FindByID(ctx context.Context, id uuid.UUID) (*order.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, order.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakePayments) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*order.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*order.Payment
	for _, p := range r.s.payments {
		if p.OrderID == orderID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r fakePayments) List(ctx context.Context, f order.PaymentFilter) ([]*order.Payment, error) {
	return nil, errors.New("not implemented")
}

type fakeMenu struct{ s *fakeStore }

func (r fakeMenu) Create(ctx context.Context, item *catalog.MenuItem) error {
	r.s.menu[item.ID] = item
	return nil
}

func (r fakeMenu) Save(ctx context.Context, item *catalog.MenuItem) error {
	r.s.menu[item.ID] = item
	return nil
}

func (r fakeMenu) Get(ctx context.Context, id uuid.UUID) (*catalog.MenuItem, error) {
	item, ok := r.s.menu[id]
	if !ok {
		return nil, catalog.ErrMenuItemNotFound
	}
	return item, nil
}

func (r fakeMenu) GetByShortCode(ctx context.Context, code string) (*catalog.MenuItem, error) {
	for _, item := range r.s.menu {
		if item.ShortCode == code {
			return item, nil
		}
	}
	return nil, catalog.ErrMenuItemNotFound
}

func (r fakeMenu) List(ctx context.Context, f catalog.Filter) ([]*catalog.MenuItem, error) {
	var out []*catalog.MenuItem
	for _, item := range r.s.menu {
		out = append(out, item)
	}
	return out, nil
}

type publishedMessage struct {
	Topic string
	Data  []byte
}

type MockPublisher struct {
	mu       sync.Mutex
	Messages []publishedMessage
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, publishedMessage{Topic: topic, Data: msg})
	return nil
}

func (m *MockPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}
