package catalog

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is a sellable dish or drink. Items are never hard-deleted; orders
// keep their own snapshot of name, price and modifiers.
type MenuItem struct {
	ID             uuid.UUID         `json:"id" bson:"_id"`
	ShortCode      string            `json:"short_code" bson:"short_code"`
	Name           string            `json:"name" bson:"name"`
	LocalizedNames map[string]string `json:"localized_names,omitempty" bson:"localized_names,omitempty"`
	Price          decimal.Decimal   `json:"price" bson:"price"`
	Category       string            `json:"category" bson:"category"`
	Station        string            `json:"station" bson:"station"`
	Available      bool              `json:"available" bson:"available"`
	Modifiers      []Modifier        `json:"modifiers,omitempty" bson:"modifiers,omitempty"`
	CreatedAt      time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" bson:"updated_at"`
}

// Modifier is an option such as a sauce or size. Price is a delta added to
// the item's base price.
type Modifier struct {
	ID       uuid.UUID       `json:"id" bson:"id"`
	Name     string          `json:"name" bson:"name"`
	Price    decimal.Decimal `json:"price" bson:"price"`
	Category string          `json:"category,omitempty" bson:"category,omitempty"`
}

func (m *MenuItem) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	for i := range m.Modifiers {
		if m.Modifiers[i].ID == uuid.Nil {
			m.Modifiers[i].ID = uuid.New()
		}
	}
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu/item"
}

func (m *MenuItem) BeforeCreate() {
	m.EnsureID()
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
}

func (m *MenuItem) BeforeUpdate() {
	m.EnsureID()
	m.UpdatedAt = time.Now()
}

// Modifier returns the modifier with the given id.
func (m *MenuItem) Modifier(id uuid.UUID) (Modifier, bool) {
	i := slices.IndexFunc(m.Modifiers, func(mod Modifier) bool { return mod.ID == id })
	if i < 0 {
		return Modifier{}, false
	}
	return m.Modifiers[i], true
}

// DisplayName returns the name for locale, falling back to Name.
func (m *MenuItem) DisplayName(locale string) string {
	if n, ok := m.LocalizedNames[locale]; ok && n != "" {
		return n
	}
	return m.Name
}
