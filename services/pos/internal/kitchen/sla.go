package kitchen

import (
	"time"

	"github.com/appetiteclub/pos/pkg/enums/ordertype"
)

type Urgency string

const (
	OnTrack Urgency = "on_track"
	Warning Urgency = "warning"
	Breach  Urgency = "breach"
)

// SLA holds preparation targets in minutes per order type.
type SLA struct {
	DineIn   int
	Takeaway int
	Delivery int
}

func DefaultSLA() SLA {
	return SLA{DineIn: 15, Takeaway: 20, Delivery: 20}
}

// Threshold returns the target for orderType. Unknown types get the dine-in
// target, the strictest one.
func (s SLA) Threshold(orderType string) int {
	switch orderType {
	case ordertype.Types.Takeaway.Code():
		return s.Takeaway
	case ordertype.Types.Delivery.Code():
		return s.Delivery
	default:
		return s.DineIn
	}
}

// WarnAt is the first whole minute classified as warning: floor(0.7 x threshold).
func WarnAt(threshold int) int {
	return threshold * 7 / 10
}

func Band(ageMinutes, threshold int) Urgency {
	switch {
	case ageMinutes >= threshold:
		return Breach
	case ageMinutes >= WarnAt(threshold):
		return Warning
	default:
		return OnTrack
	}
}

// AgeMinutes is whole minutes since creation. Terminal tickets stop the clock
// at the moment they left the line.
func AgeMinutes(t *Ticket, now time.Time) int {
	end := now
	if t.IsTerminal() {
		end = stoppedAt(t)
	}
	d := end.Sub(t.CreatedAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

func stoppedAt(t *Ticket) time.Time {
	for _, ts := range []*time.Time{t.CompletedAt, t.ClosedAt, t.CancelledAt} {
		if ts != nil {
			return *ts
		}
	}
	return t.UpdatedAt
}

type Timing struct {
	AgeMinutes int     `json:"age_minutes"`
	WarnAt     int     `json:"warn_at"`
	Urgency    Urgency `json:"urgency"`
	Frozen     bool    `json:"frozen"`
}

func Evaluate(t *Ticket, now time.Time) Timing {
	age := AgeMinutes(t, now)
	return Timing{
		AgeMinutes: age,
		WarnAt:     WarnAt(t.SLAMinutes),
		Urgency:    Band(age, t.SLAMinutes),
		Frozen:     t.IsTerminal(),
	}
}

// TicketView is a ticket with its timing for board displays. Timing carries
// no SLA field so the embedded ticket's sla_minutes survives JSON flattening.
type TicketView struct {
	*Ticket
	Timing
}

func NewTicketView(t *Ticket, now time.Time) TicketView {
	return TicketView{Ticket: t, Timing: Evaluate(t, now)}
}
