package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MockRepo is an in-memory Repo for handler and seeding tests.
type MockRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*MenuItem
	ListFunc  func(ctx context.Context, filter Filter) ([]*MenuItem, error)
	CreateErr error
	creates   int
}

func NewMockRepo(items ...*MenuItem) *MockRepo {
	m := &MockRepo{items: make(map[uuid.UUID]*MenuItem)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *MockRepo) Create(ctx context.Context, item *MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, it := range m.items {
		if it.ShortCode == item.ShortCode {
			return ErrDuplicateShortCode
		}
	}
	m.creates++
	m.items[item.ID] = item
	return nil
}

func (m *MockRepo) Save(ctx context.Context, item *MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return ErrMenuItemNotFound
	}
	m.items[item.ID] = item
	return nil
}

func (m *MockRepo) Get(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, ErrMenuItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *MockRepo) GetByShortCode(ctx context.Context, code string) (*MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ShortCode == code {
			cp := *it
			return &cp, nil
		}
	}
	return nil, ErrMenuItemNotFound
}

func (m *MockRepo) List(ctx context.Context, filter Filter) ([]*MenuItem, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*MenuItem
	for _, it := range m.items {
		if filter.AvailableOnly && !it.Available {
			continue
		}
		if filter.Category != "" && it.Category != filter.Category {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShortCode < out[j].ShortCode })
	return out, nil
}
