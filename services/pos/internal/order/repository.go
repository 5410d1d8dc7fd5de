package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Filter struct {
	BillStatus  BillStatus
	Status      Status
	Type        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
}

// Repository persists orders. List returns newest first.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, f Filter) ([]*Order, error)
}

type PaymentFilter struct {
	From   *time.Time
	To     *time.Time
	Method string
}

// PaymentRepository is append only. ListByOrder returns oldest first.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Payment, error)
	List(ctx context.Context, f PaymentFilter) ([]*Payment, error)
}
