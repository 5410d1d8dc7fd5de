package event

import "time"

const (
	// UrgencyTopic carries SLA band changes for open tickets.
	UrgencyTopic = "pos.kitchen.urgency"

	EventTicketUrgencyChanged = "kitchen.ticket.urgency_changed"
)

type TicketUrgencyEvent struct {
	EventType       string    `json:"event_type"`
	OccurredAt      time.Time `json:"occurred_at"`
	TicketID        string    `json:"ticket_id"`
	OrderID         string    `json:"order_id"`
	QueueNumber     string    `json:"queue_number"`
	Station         string    `json:"station"`
	AgeMinutes      int       `json:"age_minutes"`
	SLAMinutes      int       `json:"sla_minutes"`
	Urgency         string    `json:"urgency"`
	PreviousUrgency string    `json:"previous_urgency,omitempty"`
}
