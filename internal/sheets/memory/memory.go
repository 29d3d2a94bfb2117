package memory

import (
	"context"
	"fmt"
	"sync"

	"budgetly/internal/core"
	ports "budgetly/internal/sheets"
)

// Store is an in-process mirror used when no spreadsheet is configured.
type Store struct {
	mu    sync.Mutex
	order []string
	rows  map[string]ports.Row
}

var (
	_ ports.ExpenseMirror = (*Store)(nil)
	_ ports.RowLister     = (*Store)(nil)
)

func New() *Store {
	return &Store{rows: map[string]ports.Row{}}
}

// Upsert stores the expense and returns a synthetic row reference.
func (s *Store) Upsert(_ context.Context, ownerID string, e core.Expense) (string, error) {
	if e.ID == "" {
		return "", fmt.Errorf("expense id is required")
	}
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.rows[e.ID] = ports.RowFor(ownerID, e)
	for i, id := range s.order {
		if id == e.ID {
			return fmt.Sprintf("mem:%d", i+1), nil
		}
	}
	return "", nil
}

// Remove drops the row of expenseID if present.
func (s *Store) Remove(_ context.Context, _ string, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[expenseID]; !ok {
		return nil
	}
	delete(s.rows, expenseID)
	for i, id := range s.order {
		if id == expenseID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListRows returns the owner's rows in insertion order.
func (s *Store) ListRows(_ context.Context, ownerID string) ([]ports.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.Row
	for _, id := range s.order {
		if r := s.rows[id]; r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}
