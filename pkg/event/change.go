package event

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// ChangesTopic carries every order, ticket and payment mutation.
	ChangesTopic = "pos.changes"
	// ChangesStream is the JetStream stream retaining ChangesTopic.
	ChangesStream = "POS_EVENTS"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Entity string

const (
	EntityOrder   Entity = "order"
	EntityTicket  Entity = "ticket"
	EntityPayment Entity = "payment"
)

// Envelope is the wire shape of a change. Data holds the full record as JSON;
// it may be empty for deletes.
type Envelope struct {
	Op         Op              `json:"op"`
	Entity     Entity          `json:"entity"`
	ID         string          `json:"id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func (o Op) Valid() bool {
	switch o {
	case OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}

func (e Entity) Valid() bool {
	switch e {
	case EntityOrder, EntityTicket, EntityPayment:
		return true
	}
	return false
}

// Encode wraps record in an Envelope and marshals it.
func Encode(op Op, entity Entity, id string, at time.Time, record any) ([]byte, error) {
	env := Envelope{Op: op, Entity: entity, ID: id, OccurredAt: at}
	if record != nil {
		data, err := json.Marshal(record)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Decode parses an Envelope and rejects unknown ops or entities.
func Decode(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, err
	}
	if !env.Op.Valid() || !env.Entity.Valid() {
		return env, fmt.Errorf("unknown change %s/%s", env.Op, env.Entity)
	}
	return env, nil
}
