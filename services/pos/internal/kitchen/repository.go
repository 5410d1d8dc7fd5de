package kitchen

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TicketFilter struct {
	OrderID     *uuid.UUID
	Station     string
	Statuses    []string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
}

// TicketRepository persists tickets. FindByID returns ErrTicketNotFound when
// the id is unknown. List returns tickets oldest first.
type TicketRepository interface {
	Create(ctx context.Context, t *Ticket) error
	Update(ctx context.Context, t *Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]*Ticket, error)
}

// Workflow runs ticket transitions together with the parent order update.
type Workflow interface {
	AdvanceTicket(ctx context.Context, id uuid.UUID, action Action) (*Ticket, error)
	SetTicketPriority(ctx context.Context, id uuid.UUID, p Priority) (*Ticket, error)
}
