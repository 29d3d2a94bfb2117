package amqp

import (
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func errClosedForTest() error { return amqp091.ErrClosed }

func TestNewLedgerEventIDsSortByTime(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	a, err := NewLedgerEvent(ExpenseCreated, "owner", "e1", t0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewLedgerEvent(ExpenseDeleted, "owner", "e1", t0.Add(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if len(a.ID) != 26 {
		t.Errorf("event id %q is not a ULID", a.ID)
	}
	if !(a.ID < b.ID) {
		t.Errorf("event ids not time ordered: %s >= %s", a.ID, b.ID)
	}
	if !a.Timestamp.Equal(t0) {
		t.Errorf("Timestamp = %v, want %v", a.Timestamp, t0)
	}
}

func TestLedgerEventFromJSON(t *testing.T) {
	e, err := NewLedgerEvent(ExpenseGenerated, "owner", "e1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	e.TemplateID = "tpl"
	data, err := e.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := LedgerEventFromJSON(data)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error = %v", err)
	}
	if got.ID != e.ID || got.Type != e.Type || got.TemplateID != "tpl" || !got.Timestamp.Equal(e.Timestamp) {
		t.Errorf("LedgerEventFromJSON() = %+v, want %+v", got, e)
	}

	bad := []string{
		`{"id": 1}`,
		`{"id":"x","type":"expense.exploded","owner_id":"o","expense_id":"e"}`,
		`{"id":"x","type":"expense.created","owner_id":"","expense_id":"e"}`,
		`not json`,
	}
	for _, in := range bad {
		if _, err := LedgerEventFromJSON([]byte(in)); err == nil {
			t.Errorf("LedgerEventFromJSON(%s) should fail", in)
		}
	}
}
