package order

import (
	"slices"
	"strings"
	"time"

	"github.com/appetiteclub/pos/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/pos/services/pos/internal/auth"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillStatus string

const (
	BillUnpaid BillStatus = "UNPAID"
	BillPaid   BillStatus = "PAID"
)

// Status is the fulfillment state, derived from the order's tickets.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReady      Status = "READY"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

type Item struct {
	LineID     uuid.UUID       `json:"line_id" bson:"line_id"`
	MenuItemID uuid.UUID       `json:"menu_item_id" bson:"menu_item_id"`
	Name       string          `json:"name" bson:"name"`
	Quantity   int             `json:"quantity" bson:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" bson:"unit_price"`
	Modifiers  []string        `json:"modifiers,omitempty" bson:"modifiers,omitempty"`
	Station    string          `json:"station" bson:"station"`
	Category   string          `json:"category,omitempty" bson:"category,omitempty"`
	Notes      string          `json:"notes,omitempty" bson:"notes,omitempty"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID           uuid.UUID       `json:"id" bson:"_id"`
	QueueNumber  string          `json:"queue_number" bson:"queue_number"`
	Type         string          `json:"type" bson:"type"`
	TableNumber  string          `json:"table_number,omitempty" bson:"table_number,omitempty"`
	ContactInfo  string          `json:"contact_info,omitempty" bson:"contact_info,omitempty"`
	Platform     string          `json:"platform,omitempty" bson:"platform,omitempty"`
	CustomerName string          `json:"customer_name,omitempty" bson:"customer_name,omitempty"`
	Items        []Item          `json:"items" bson:"items"`
	Subtotal     decimal.Decimal `json:"subtotal" bson:"subtotal"`
	Tax          decimal.Decimal `json:"tax" bson:"tax"`
	Total        decimal.Decimal `json:"total" bson:"total"`
	BillStatus   BillStatus      `json:"bill_status" bson:"bill_status"`
	Status       Status          `json:"status" bson:"status"`
	VoidNote     string          `json:"void_note,omitempty" bson:"void_note,omitempty"`
	VoidedBy     *auth.Actor     `json:"voided_by,omitempty" bson:"voided_by,omitempty"`
	VoidedAt     *time.Time      `json:"voided_at,omitempty" bson:"voided_at,omitempty"`
	CreatedBy    auth.Actor      `json:"created_by" bson:"created_by"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" bson:"updated_at"`
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) IsCancelled() bool {
	return o.Status == StatusCancelled
}

func (o *Order) IsPaid() bool {
	return o.BillStatus == BillPaid
}

// ApplyTickets recomputes fulfillment from the order's tickets and reports
// whether it changed. Cancelled orders never change.
//
//	all CLOSED            -> COMPLETED
//	all READY or CLOSED   -> READY
//	any ticket started    -> IN_PROGRESS
//	otherwise             -> PENDING
func (o *Order) ApplyTickets(tickets []*kitchen.Ticket, now time.Time) bool {
	if o.IsCancelled() || len(tickets) == 0 {
		return false
	}

	var closed, finished, started int
	for _, t := range tickets {
		switch t.Status {
		case kitchenstatus.Statuses.Closed.Code():
			closed++
			finished++
			started++
		case kitchenstatus.Statuses.Ready.Code():
			finished++
			started++
		case kitchenstatus.Statuses.InProgress.Code():
			started++
		}
	}

	next := StatusPending
	switch {
	case closed == len(tickets):
		next = StatusCompleted
	case finished == len(tickets):
		next = StatusReady
	case started > 0:
		next = StatusInProgress
	}

	if next == o.Status {
		return false
	}
	o.Status = next
	o.UpdatedAt = now
	return true
}

// Reconcile sets the bill status from the ledger and reports whether it
// changed.
func (o *Order) Reconcile(l *Ledger, now time.Time) bool {
	next := BillUnpaid
	if l.IsPaid() {
		next = BillPaid
	}
	if next == o.BillStatus {
		return false
	}
	o.BillStatus = next
	o.UpdatedAt = now
	return true
}

// Void cancels the order with an audit note. Voiding twice is a no-op that
// reports false. Payments are left untouched.
func (o *Order) Void(note string, by auth.Actor, now time.Time) (bool, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return false, ErrMissingVoidNote
	}
	if o.IsCancelled() {
		return false, nil
	}
	o.Status = StatusCancelled
	o.VoidNote = note
	o.VoidedBy = &by
	o.VoidedAt = &now
	o.UpdatedAt = now
	return true, nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Items = make([]Item, len(o.Items))
	for i, it := range o.Items {
		it.Modifiers = slices.Clone(it.Modifiers)
		cp.Items[i] = it
	}
	if o.VoidedBy != nil {
		v := *o.VoidedBy
		cp.VoidedBy = &v
	}
	if o.VoidedAt != nil {
		v := *o.VoidedAt
		cp.VoidedAt = &v
	}
	return &cp
}
