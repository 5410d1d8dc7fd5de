package kitchenstatus

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Status struct {
	Name string
	// Rank orders the staff-driven lifecycle. Cancelled sits outside it.
	Rank int
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	words := strings.ReplaceAll(strings.ToLower(s.Name), "_", " ")
	return cases.Title(language.Und).String(words)
}

// Terminal reports whether no staff transition can leave this status.
func (s Status) Terminal() bool {
	return s.Name == Statuses.Ready.Name ||
		s.Name == Statuses.Closed.Name ||
		s.Name == Statuses.Cancelled.Name
}

type Enum struct {
	Pending    Status
	InProgress Status
	Ready      Status
	Closed     Status
	Cancelled  Status
}

var Statuses = Enum{
	Pending:    Status{Name: "PENDING", Rank: 0},
	InProgress: Status{Name: "IN_PROGRESS", Rank: 1},
	Ready:      Status{Name: "READY", Rank: 2},
	Closed:     Status{Name: "CLOSED", Rank: 3},
	Cancelled:  Status{Name: "CANCELLED", Rank: -1},
}

var All = []Status{
	Statuses.Pending,
	Statuses.InProgress,
	Statuses.Ready,
	Statuses.Closed,
	Statuses.Cancelled,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
