package kitchen

import (
	"fmt"
	"time"

	"github.com/appetiteclub/pos/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/pos/services/pos/internal/fault"
	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = fault.State("invalid ticket transition")
	ErrInvalidPriority   = fault.Validation("invalid ticket priority")
	ErrInvalidAction     = fault.Validation("invalid ticket action")
	ErrTicketNotFound    = fault.NotFound("ticket not found")
)

type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Action is a staff-triggered ticket transition.
type Action string

const (
	ActionStart Action = "start"
	ActionReady Action = "ready"
	ActionClose Action = "close"
)

// TicketItem is one order line routed to a station. LineID ties it back to
// the order item it was copied from.
type TicketItem struct {
	LineID     uuid.UUID `bson:"line_id" json:"line_id"`
	MenuItemID uuid.UUID `bson:"menu_item_id" json:"menu_item_id"`
	Name       string    `bson:"name" json:"name"`
	Quantity   int       `bson:"quantity" json:"quantity"`
	Modifiers  []string  `bson:"modifiers,omitempty" json:"modifiers,omitempty"`
	Category   string    `bson:"category,omitempty" json:"category,omitempty"`
	Notes      string    `bson:"notes,omitempty" json:"notes,omitempty"`
}

type Ticket struct {
	ID          uuid.UUID    `bson:"_id" json:"id"`
	OrderID     uuid.UUID    `bson:"order_id" json:"order_id"`
	QueueNumber string       `bson:"queue_number" json:"queue_number"`
	Station     string       `bson:"station" json:"station"`
	Items       []TicketItem `bson:"items" json:"items"`
	Status      string       `bson:"status" json:"status"`
	Priority    Priority     `bson:"priority" json:"priority"`
	SLAMinutes  int          `bson:"sla_minutes" json:"sla_minutes"`

	// Copied from the order for display without a join
	OrderType   string `bson:"order_type" json:"order_type"`
	TableNumber string `bson:"table_number,omitempty" json:"table_number,omitempty"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	StartedAt   *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	ClosedAt    *time.Time `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
	CancelledAt *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
}

func (t *Ticket) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
}

func (t *Ticket) GetID() uuid.UUID {
	return t.ID
}

func (t *Ticket) ResourceType() string {
	return "ticket"
}

func (t *Ticket) state() kitchenstatus.Status {
	if s := kitchenstatus.ByName(t.Status); s != nil {
		return *s
	}
	return kitchenstatus.Status{Name: t.Status, Rank: -1}
}

// IsOpen reports whether staff still have work to do on the ticket.
func (t *Ticket) IsOpen() bool {
	return t.Status == kitchenstatus.Statuses.Pending.Code() ||
		t.Status == kitchenstatus.Statuses.InProgress.Code()
}

// IsTerminal reports whether the ticket's timer has stopped.
func (t *Ticket) IsTerminal() bool {
	return t.state().Terminal()
}

func (t *Ticket) advance(from, to kitchenstatus.Status, now time.Time) error {
	if t.Status != from.Code() {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.Status, to.Code())
	}
	t.Status = to.Code()
	t.UpdatedAt = now
	return nil
}

// Start moves PENDING to IN_PROGRESS.
func (t *Ticket) Start(now time.Time) error {
	if err := t.advance(kitchenstatus.Statuses.Pending, kitchenstatus.Statuses.InProgress, now); err != nil {
		return err
	}
	t.StartedAt = &now
	return nil
}

// MarkReady moves IN_PROGRESS to READY and freezes the ticket's age.
func (t *Ticket) MarkReady(now time.Time) error {
	if err := t.advance(kitchenstatus.Statuses.InProgress, kitchenstatus.Statuses.Ready, now); err != nil {
		return err
	}
	t.CompletedAt = &now
	return nil
}

// Close moves READY to CLOSED once the food is handed off.
func (t *Ticket) Close(now time.Time) error {
	if err := t.advance(kitchenstatus.Statuses.Ready, kitchenstatus.Statuses.Closed, now); err != nil {
		return err
	}
	t.ClosedAt = &now
	return nil
}

// Cancel stops work on an open ticket. Only an order void calls it.
func (t *Ticket) Cancel(now time.Time) error {
	if !t.IsOpen() {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.Status, kitchenstatus.Statuses.Cancelled.Code())
	}
	t.Status = kitchenstatus.Statuses.Cancelled.Code()
	t.CancelledAt = &now
	t.UpdatedAt = now
	return nil
}

// Apply runs the transition named by a.
func (t *Ticket) Apply(a Action, now time.Time) error {
	switch a {
	case ActionStart:
		return t.Start(now)
	case ActionReady:
		return t.MarkReady(now)
	case ActionClose:
		return t.Close(now)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, a)
	}
}

func (t *Ticket) SetPriority(p Priority, now time.Time) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, p)
	}
	if !t.IsOpen() {
		return fmt.Errorf("%w: priority on %s ticket", ErrInvalidTransition, t.Status)
	}
	t.Priority = p
	t.UpdatedAt = now
	return nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Items = make([]TicketItem, len(t.Items))
	for i, it := range t.Items {
		it.Modifiers = append([]string(nil), it.Modifiers...)
		cp.Items[i] = it
	}
	cp.StartedAt = cloneTime(t.StartedAt)
	cp.CompletedAt = cloneTime(t.CompletedAt)
	cp.ClosedAt = cloneTime(t.ClosedAt)
	cp.CancelledAt = cloneTime(t.CancelledAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
