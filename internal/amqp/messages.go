package amqp

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType names a ledger change.
type EventType string

const (
	ExpenseCreated   EventType = "expense.created"
	ExpenseUpdated   EventType = "expense.updated"
	ExpenseDeleted   EventType = "expense.deleted"
	ExpenseGenerated EventType = "expense.generated"
)

func (t EventType) Valid() bool {
	switch t {
	case ExpenseCreated, ExpenseUpdated, ExpenseDeleted, ExpenseGenerated:
		return true
	}
	return false
}

// LedgerEvent is a lightweight notification of a ledger change. Consumers
// fetch the current expense from the store; the event carries ids only.
// ID is a ULID, so events sort by creation time.
type LedgerEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OwnerID    string    `json:"owner_id"`
	ExpenseID  string    `json:"expense_id"`
	TemplateID string    `json:"template_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps a new event at now.
func NewLedgerEvent(eventType EventType, ownerID, expenseID string, now time.Time) (*LedgerEvent, error) {
	id, err := ulid.New(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}
	return &LedgerEvent{
		ID:        id.String(),
		Type:      eventType,
		OwnerID:   ownerID,
		ExpenseID: expenseID,
		Timestamp: now.UTC(),
	}, nil
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and checks an event.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.OwnerID == "" || e.ExpenseID == "" {
		return nil, fmt.Errorf("event %s missing owner or expense id", e.ID)
	}
	return &e, nil
}
