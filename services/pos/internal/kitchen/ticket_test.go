package kitchen

import (
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/pos/pkg/enums/kitchenstatus"
	"github.com/google/uuid"
)

var t0 = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newTicket(status string) *Ticket {
	return &Ticket{
		ID:         uuid.New(),
		OrderID:    uuid.New(),
		Station:    "kitchen",
		Status:     status,
		Priority:   PriorityNormal,
		SLAMinutes: 15,
		OrderType:  "dine_in",
		CreatedAt:  t0,
		UpdatedAt:  t0,
	}
}

var (
	pending    = kitchenstatus.Statuses.Pending.Code()
	inProgress = kitchenstatus.Statuses.InProgress.Code()
	ready      = kitchenstatus.Statuses.Ready.Code()
	closed     = kitchenstatus.Statuses.Closed.Code()
	cancelled  = kitchenstatus.Statuses.Cancelled.Code()
)

func TestTicketApply(t *testing.T) {
	tests := []struct {
		name       string
		from       string
		action     Action
		wantStatus string
		wantErr    error
	}{
		{"startPending", pending, ActionStart, inProgress, nil},
		{"readyInProgress", inProgress, ActionReady, ready, nil},
		{"closeReady", ready, ActionClose, closed, nil},
		{"skipToReady", pending, ActionReady, pending, ErrInvalidTransition},
		{"skipToClose", inProgress, ActionClose, inProgress, ErrInvalidTransition},
		{"restartReady", ready, ActionStart, ready, ErrInvalidTransition},
		{"restartInProgress", inProgress, ActionStart, inProgress, ErrInvalidTransition},
		{"reopenClosed", closed, ActionStart, closed, ErrInvalidTransition},
		{"readyAgain", ready, ActionReady, ready, ErrInvalidTransition},
		{"advanceCancelled", cancelled, ActionStart, cancelled, ErrInvalidTransition},
		{"unknownAction", pending, Action("serve"), pending, ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := newTicket(tt.from)
			before := *tk
			now := t0.Add(5 * time.Minute)

			err := tk.Apply(tt.action, now)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
			}
			if tk.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", tk.Status, tt.wantStatus)
			}
			if err != nil && tk.UpdatedAt != before.UpdatedAt {
				t.Error("rejected transition touched UpdatedAt")
			}
		})
	}
}

func TestTicketTransitionsStampTimes(t *testing.T) {
	tk := newTicket(pending)
	started := t0.Add(2 * time.Minute)
	done := t0.Add(12 * time.Minute)
	handed := t0.Add(14 * time.Minute)

	if err := tk.Start(started); err != nil {
		t.Fatal(err)
	}
	if err := tk.MarkReady(done); err != nil {
		t.Fatal(err)
	}
	if err := tk.Close(handed); err != nil {
		t.Fatal(err)
	}

	if !tk.StartedAt.Equal(started) || !tk.CompletedAt.Equal(done) || !tk.ClosedAt.Equal(handed) {
		t.Errorf("timestamps = %v %v %v", tk.StartedAt, tk.CompletedAt, tk.ClosedAt)
	}
	if !tk.UpdatedAt.Equal(handed) {
		t.Errorf("UpdatedAt = %v, want %v", tk.UpdatedAt, handed)
	}
}

func TestTicketNeverRegresses(t *testing.T) {
	rank := func(s string) int { return kitchenstatus.ByName(s).Rank }
	actions := []Action{ActionClose, ActionStart, ActionReady, ActionStart, ActionClose, ActionReady, ActionClose, ActionStart}

	tk := newTicket(pending)
	prev := rank(tk.Status)
	for i, a := range actions {
		_ = tk.Apply(a, t0.Add(time.Duration(i)*time.Minute))
		cur := rank(tk.Status)
		if cur < prev {
			t.Fatalf("status regressed from rank %d to %d after %s", prev, cur, a)
		}
		prev = cur
	}
	if tk.Status != closed {
		t.Errorf("final status = %s, want %s", tk.Status, closed)
	}
}

func TestTicketCancel(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		wantErr error
	}{
		{"pending", pending, nil},
		{"inProgress", inProgress, nil},
		{"ready", ready, ErrInvalidTransition},
		{"closed", closed, ErrInvalidTransition},
		{"alreadyCancelled", cancelled, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := newTicket(tt.from)
			err := tk.Cancel(t0.Add(time.Minute))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Cancel() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (tk.Status != cancelled || tk.CancelledAt == nil) {
				t.Errorf("ticket not cancelled: %+v", tk)
			}
			if err != nil && tk.Status != tt.from {
				t.Errorf("status changed to %s", tk.Status)
			}
		})
	}
}

func TestTicketSetPriority(t *testing.T) {
	tk := newTicket(inProgress)
	if err := tk.SetPriority(PriorityUrgent, t0); err != nil {
		t.Fatalf("SetPriority() error = %v", err)
	}
	if tk.Priority != PriorityUrgent {
		t.Errorf("priority = %s", tk.Priority)
	}
	if err := tk.SetPriority("LOW", t0); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("unknown priority error = %v", err)
	}
	done := newTicket(ready)
	if err := done.SetPriority(PriorityHigh, t0); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("priority on ready ticket error = %v", err)
	}
}

func TestTicketCloneIsDeep(t *testing.T) {
	tk := newTicket(inProgress)
	started := t0
	tk.StartedAt = &started
	tk.Items = []TicketItem{{LineID: uuid.New(), Name: "Chicken Rice", Quantity: 1, Modifiers: []string{"Red Sauce"}}}

	cp := tk.Clone()
	cp.Items[0].Modifiers[0] = "Green Sauce"
	*cp.StartedAt = t0.Add(time.Hour)

	if tk.Items[0].Modifiers[0] != "Red Sauce" || !tk.StartedAt.Equal(t0) {
		t.Error("clone shares memory with original")
	}
}
