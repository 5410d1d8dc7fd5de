package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/pos/pkg/enums/paymentmethod"
	"github.com/appetiteclub/pos/services/pos/internal/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is an append-only ledger entry. Amount is what counts towards the
// bill; Tendered minus Change equals Amount.
type Payment struct {
	ID        uuid.UUID       `json:"id" bson:"_id"`
	OrderID   uuid.UUID       `json:"order_id" bson:"order_id"`
	Amount    decimal.Decimal `json:"amount" bson:"amount"`
	Tendered  decimal.Decimal `json:"tendered" bson:"tendered"`
	Change    decimal.Decimal `json:"change" bson:"change"`
	Method    string          `json:"method" bson:"method"`
	Reference string          `json:"reference,omitempty" bson:"reference,omitempty"`
	PaidBy    auth.Actor      `json:"paid_by" bson:"paid_by"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
}

func (p *Payment) GetID() uuid.UUID {
	return p.ID
}

func (p *Payment) ResourceType() string {
	return "payment"
}

type PaymentInput struct {
	ID        uuid.UUID
	Amount    decimal.Decimal
	Method    string
	Reference string
}

// Ledger is the set of payments recorded against one order.
type Ledger struct {
	orderID  uuid.UUID
	total    decimal.Decimal
	payments []*Payment
}

func NewLedger(orderID uuid.UUID, total decimal.Decimal, payments []*Payment) *Ledger {
	return &Ledger{orderID: orderID, total: total, payments: payments}
}

func (l *Ledger) Paid() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range l.payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Balance is never negative.
func (l *Ledger) Balance() decimal.Decimal {
	b := l.total.Sub(l.Paid())
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

func (l *Ledger) IsPaid() bool {
	return l.Paid().GreaterThanOrEqual(l.total)
}

func (l *Ledger) Payments() []*Payment {
	out := make([]*Payment, len(l.payments))
	copy(out, l.payments)
	return out
}

func (l *Ledger) Find(id uuid.UUID) (*Payment, bool) {
	for _, p := range l.payments {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Record validates in and appends it. A payment whose ID is already on the
// ledger is returned as is with recorded=false. Cash may exceed the balance
// and the excess becomes change; other methods may not.
func (l *Ledger) Record(in PaymentInput, by auth.Actor, now time.Time) (p *Payment, recorded bool, err error) {
	if in.ID != uuid.Nil {
		if existing, ok := l.Find(in.ID); ok {
			return existing, false, nil
		}
	}

	method := paymentmethod.ByName(strings.ToLower(strings.TrimSpace(in.Method)))
	if method == nil {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidMethod, in.Method)
	}
	if !in.Amount.IsPositive() {
		return nil, false, ErrInvalidAmount
	}

	balance := l.Balance()
	if l.IsPaid() {
		return nil, false, ErrAlreadyPaid
	}

	applied := in.Amount
	change := decimal.Zero
	if in.Amount.GreaterThan(balance) {
		if !method.MakesChange() {
			return nil, false, fmt.Errorf("%w: %s exceeds balance %s", ErrOverpayment, in.Amount.StringFixed(2), balance.StringFixed(2))
		}
		applied = balance
		change = in.Amount.Sub(balance)
	}

	p = &Payment{
		ID:        in.ID,
		OrderID:   l.orderID,
		Amount:    applied,
		Tendered:  in.Amount,
		Change:    change,
		Method:    method.Code(),
		Reference: strings.TrimSpace(in.Reference),
		PaidBy:    by,
		CreatedAt: now,
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	l.payments = append(l.payments, p)
	return p, true, nil
}
