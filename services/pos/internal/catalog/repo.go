package catalog

import (
	"context"

	"github.com/appetiteclub/pos/services/pos/internal/fault"
	"github.com/google/uuid"
)

var (
	ErrMenuItemNotFound   = fault.NotFound("menu item not found")
	ErrDuplicateShortCode = fault.Conflict("short code already in use")
)

type Filter struct {
	Category      string
	Station       string
	AvailableOnly bool
}

// Repo stores menu items. Get and GetByShortCode return ErrMenuItemNotFound
// when nothing matches.
type Repo interface {
	Create(ctx context.Context, item *MenuItem) error
	Save(ctx context.Context, item *MenuItem) error
	Get(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	GetByShortCode(ctx context.Context, shortCode string) (*MenuItem, error)
	List(ctx context.Context, filter Filter) ([]*MenuItem, error)
}
