package google

import (
	"testing"

	"budgetly/internal/core"
	ports "budgetly/internal/sheets"
)

func TestParseRow(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   ports.Row
		ok     bool
	}{
		{
			name:   "full row",
			values: []any{"e1", "alice", "2024-05-03", "Food", "", "Lunch", "12.5", "t1"},
			want: ports.Row{ExpenseID: "e1", OwnerID: "alice", Date: core.NewDate(2024, 5, 3),
				Category: "Food", Description: "Lunch", Amount: core.Money{Cents: 1250}, RecurringID: "t1"},
			ok: true,
		},
		{
			name:   "trailing recurring column trimmed",
			values: []any{"e2", "alice", "2024-05-04", "Food", "", "Dinner", "7,80"},
			want: ports.Row{ExpenseID: "e2", OwnerID: "alice", Date: core.NewDate(2024, 5, 4),
				Category: "Food", Description: "Dinner", Amount: core.Money{Cents: 780}},
			ok: true,
		},
		{name: "header", values: header, ok: false},
		{name: "blank", values: []any{}, ok: false},
		{name: "bad date", values: []any{"e3", "alice", "03/05/2024", "Food", "", "x", "1"}, ok: false},
		{name: "bad amount", values: []any{"e3", "alice", "2024-05-03", "Food", "", "x", "abc"}, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRow(tt.values)
			if ok != tt.ok {
				t.Fatalf("parseRow() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.ExpenseID != tt.want.ExpenseID || got.OwnerID != tt.want.OwnerID ||
				!got.Date.Equal(tt.want.Date) || got.Amount != tt.want.Amount ||
				got.Description != tt.want.Description || got.RecurringID != tt.want.RecurringID {
				t.Errorf("parseRow() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFindAndNextFreeRow(t *testing.T) {
	column := [][]any{{"ID"}, {"e1"}, {}, {"e3"}}
	if got := findRow(column, "e3"); got != 4 {
		t.Errorf("findRow(e3) = %d, want 4", got)
	}
	if got := findRow(column, "missing"); got != 0 {
		t.Errorf("findRow(missing) = %d, want 0", got)
	}
	if got := nextFreeRow(column); got != 3 {
		t.Errorf("nextFreeRow() = %d, want 3", got)
	}
	if got := nextFreeRow(column[:2]); got != 3 {
		t.Errorf("nextFreeRow(full) = %d, want 3", got)
	}
	if got := nextFreeRow(nil); got != 2 {
		t.Errorf("nextFreeRow(empty) = %d, want 2", got)
	}
}
