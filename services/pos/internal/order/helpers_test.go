package order

import (
	"time"

	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var t0 = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

var (
	sauce = catalog.Modifier{ID: uuid.New(), Name: "Extra sauce", Price: decimal.NewFromInt(5)}
	large = catalog.Modifier{ID: uuid.New(), Name: "Large", Price: decimal.NewFromInt(10)}
)

func menuItem(name, station string, price int64) *catalog.MenuItem {
	return &catalog.MenuItem{
		ID:        uuid.New(),
		ShortCode: name[:1],
		Name:      name,
		Price:     decimal.NewFromInt(price),
		Category:  "main",
		Station:   station,
		Available: true,
		Modifiers: []catalog.Modifier{sauce, large},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type menuItemArg struct {
	item *catalog.MenuItem
	qty  int
	mods []uuid.UUID
}
