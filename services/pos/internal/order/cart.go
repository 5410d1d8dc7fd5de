package order

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is a pending order line. UnitPrice already includes modifier
// deltas.
type CartLine struct {
	LineID      uuid.UUID
	MenuItemID  uuid.UUID
	Name        string
	Station     string
	Category    string
	UnitPrice   decimal.Decimal
	ModifierIDs []uuid.UUID
	Modifiers   []string
	Quantity    int
	Notes       string
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart accumulates lines for one order before submission. It does no I/O
// and is not safe for concurrent use.
type Cart struct {
	lines []CartLine
}

func NewCart() *Cart {
	return &Cart{}
}

// AddItem adds quantity of item with the given modifiers. A line with the
// same item and the same modifier set, in any order, absorbs the quantity.
func (c *Cart) AddItem(item *catalog.MenuItem, quantity int, modifierIDs []uuid.UUID, notes string) (uuid.UUID, error) {
	if quantity <= 0 {
		return uuid.Nil, ErrInvalidQuantity
	}
	if !item.Available {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
	}

	ids := normalizeModifierIDs(modifierIDs)
	unit := item.Price
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		mod, ok := item.Modifier(id)
		if !ok {
			return uuid.Nil, fmt.Errorf("%w: %s on %s", ErrUnknownModifier, id, item.Name)
		}
		unit = unit.Add(mod.Price)
		names = append(names, mod.Name)
	}

	for i := range c.lines {
		l := &c.lines[i]
		if l.MenuItemID == item.ID && slices.Equal(l.ModifierIDs, ids) {
			l.Quantity += quantity
			if l.Notes == "" {
				l.Notes = notes
			}
			return l.LineID, nil
		}
	}

	line := CartLine{
		LineID:      uuid.New(),
		MenuItemID:  item.ID,
		Name:        item.Name,
		Station:     item.Station,
		Category:    item.Category,
		UnitPrice:   unit,
		ModifierIDs: ids,
		Modifiers:   names,
		Quantity:    quantity,
		Notes:       notes,
	}
	c.lines = append(c.lines, line)
	return line.LineID, nil
}

// SetQuantity replaces a line's quantity, removing the line when q <= 0.
func (c *Cart) SetQuantity(lineID uuid.UUID, q int) error {
	i := c.index(lineID)
	if i < 0 {
		return ErrLineNotFound
	}
	if q <= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
		return nil
	}
	c.lines[i].Quantity = q
	return nil
}

// RemoveItem drops a line. Unknown ids are ignored.
func (c *Cart) RemoveItem(lineID uuid.UUID) {
	if i := c.index(lineID); i >= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the cart's lines.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	for i, l := range c.lines {
		l.ModifierIDs = slices.Clone(l.ModifierIDs)
		l.Modifiers = slices.Clone(l.Modifiers)
		out[i] = l
	}
	return out
}

// Total is recomputed from the lines on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) index(lineID uuid.UUID) int {
	return slices.IndexFunc(c.lines, func(l CartLine) bool { return l.LineID == lineID })
}

func normalizeModifierIDs(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return slices.Compact(out)
}
