package kitchen

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
)

// MockTicketRepository is a test mock for TicketRepository
type MockTicketRepository struct {
	mu       sync.Mutex
	tickets  map[uuid.UUID]*Ticket
	ListFunc func(ctx context.Context, filter TicketFilter) ([]*Ticket, error)
}

func NewMockTicketRepository(tickets ...*Ticket) *MockTicketRepository {
	m := &MockTicketRepository{tickets: make(map[uuid.UUID]*Ticket)}
	for _, t := range tickets {
		m.tickets[t.ID] = t.Clone()
	}
	return m
}

func (m *MockTicketRepository) Create(ctx context.Context, t *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[t.ID] = t.Clone()
	return nil
}

func (m *MockTicketRepository) Update(ctx context.Context, t *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[t.ID]; !ok {
		return ErrTicketNotFound
	}
	m.tickets[t.ID] = t.Clone()
	return nil
}

func (m *MockTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return t.Clone(), nil
}

func (m *MockTicketRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*Ticket, error) {
	return m.List(ctx, TicketFilter{OrderID: &orderID})
}

func (m *MockTicketRepository) List(ctx context.Context, filter TicketFilter) ([]*Ticket, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Ticket
	for _, t := range m.tickets {
		if filter.OrderID != nil && t.OrderID != *filter.OrderID {
			continue
		}
		if filter.Station != "" && t.Station != filter.Station {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, t.Status) {
			continue
		}
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// MockWorkflow applies transitions directly to a mock repository.
type MockWorkflow struct {
	repo  *MockTicketRepository
	clock func() time.Time
}

func (w *MockWorkflow) AdvanceTicket(ctx context.Context, id uuid.UUID, action Action) (*Ticket, error) {
	t, err := w.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Apply(action, w.clock()); err != nil {
		return nil, err
	}
	return t, w.repo.Update(ctx, t)
}

func (w *MockWorkflow) SetTicketPriority(ctx context.Context, id uuid.UUID, p Priority) (*Ticket, error) {
	t, err := w.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.SetPriority(p, w.clock()); err != nil {
		return nil, err
	}
	return t, w.repo.Update(ctx, t)
}

type publishedMessage struct {
	Topic string
	Data  []byte
}

// MockPublisher records published messages.
type MockPublisher struct {
	mu       sync.Mutex
	Messages []publishedMessage
	Err      error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (p *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Messages = append(p.Messages, publishedMessage{Topic: topic, Data: msg})
	return nil
}

// MockStream serves canned messages to Warm.
type MockStream struct {
	Messages []events.StreamMessage
	Err      error
}

func (s *MockStream) Fetch(ctx context.Context, limit int) ([]events.StreamMessage, error) {
	return s.Messages, s.Err
}

func (s *MockStream) SubscribeStream(ctx context.Context, handler events.HandlerFunc) error {
	return nil
}
