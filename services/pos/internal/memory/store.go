// Package memory is an in-process Store used for development and tests.
// Writes are serialized; a failed transaction restores the maps it started
// from.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/appetiteclub/pos/services/pos/internal/pos"
	"github.com/google/uuid"
)

type txKey struct{}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	orders   map[uuid.UUID]*order.Order
	tickets  map[uuid.UUID]*kitchen.Ticket
	payments map[uuid.UUID]*order.Payment
	menu     map[uuid.UUID]*catalog.MenuItem
}

var _ pos.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		orders:   make(map[uuid.UUID]*order.Order),
		tickets:  make(map[uuid.UUID]*kitchen.Ticket),
		payments: make(map[uuid.UUID]*order.Payment),
		menu:     make(map[uuid.UUID]*catalog.MenuItem),
	}
}

func (s *Store) Orders() order.Repository { return &orderRepo{s} }
func (s *Store) Tickets() kitchen.TicketRepository { return &ticketRepo{s} }
func (s *Store) Payments() order.PaymentRepository { return &paymentRepo{s} }
func (s *Store) Menu() catalog.Repo { return &menuRepo{s} }

// InTx joins the transaction already carried by ctx, if any.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	orders := maps.Clone(s.orders)
	tickets := maps.Clone(s.tickets)
	payments := maps.Clone(s.payments)
	menu := maps.Clone(s.menu)
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.orders, s.tickets, s.payments, s.menu = orders, tickets, payments, menu
		s.mu.Unlock()
		return err
	}
	return nil
}

// Reset drops every record.
func (s *Store) Reset() {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.orders)
	clear(s.tickets)
	clear(s.payments)
	clear(s.menu)
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// write runs fn under the write lock. Outside a transaction it also takes
// txMu so a concurrent rollback cannot drop it.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}
