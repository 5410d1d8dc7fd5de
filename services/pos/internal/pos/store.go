package pos

import (
	"context"

	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/appetiteclub/pos/services/pos/internal/fault"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
)

// Collaborator failures. Store implementations wrap driver errors with these.
var (
	ErrUnavailable = fault.Unavailable("store unavailable")
	ErrConflict    = fault.Conflict("conflicting write")
	ErrNotFound    = fault.NotFound("record not found")
)

// Store is the persistence boundary of the service. Repositories obtained
// from it honour the transaction carried by the context passed to InTx.
type Store interface {
	Orders() order.Repository
	Tickets() kitchen.TicketRepository
	Payments() order.PaymentRepository
	Menu() catalog.Repo
	// InTx runs fn in a transaction. Any error from fn rolls back every write
	// made through ctx.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// KindOf classifies err for callers that only import this package.
func KindOf(err error) fault.Kind {
	return fault.KindOf(err)
}
