package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"budgetly/internal/config"
	"budgetly/internal/core"
)

// undoRecord is the last deleted expense, kept on disk so that a later
// 'ledger restore' invocation can bring it back.
type undoRecord struct {
	Owner             string    `json:"owner"`
	ID                string    `json:"id"`
	Category          string    `json:"category"`
	Subcategory       string    `json:"subcategory,omitempty"`
	CustomCategory    string    `json:"custom_category,omitempty"`
	CustomSubcategory string    `json:"custom_subcategory,omitempty"`
	AmountCents       int64     `json:"amount_cents"`
	Description       string    `json:"description"`
	Date              string    `json:"date"`
	CreatedAt         time.Time `json:"created_at"`
	RecurringID       string    `json:"recurring_id,omitempty"`
}

func undoPath(cfg *config.Config) string {
	dir := cfg.FileStoreDir
	if cfg.LedgerBackend == config.BackendSQLite {
		dir = filepath.Dir(cfg.SQLiteDBPath)
	}
	return filepath.Join(dir, ".last-deleted.undo")
}

func saveUndo(path, owner string, e core.Expense) error {
	rec := undoRecord{
		Owner:             owner,
		ID:                e.ID,
		Category:          string(e.Category),
		Subcategory:       string(e.Subcategory),
		CustomCategory:    e.CustomCategory,
		CustomSubcategory: e.CustomSubcategory,
		AmountCents:       e.Amount.Cents,
		Description:       e.Description,
		Date:              e.Date.String(),
		CreatedAt:         e.CreatedAt,
		RecurringID:       e.RecurringID,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode undo record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create undo directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func loadUndo(path, owner string) (core.Expense, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return core.Expense{}, errors.New("nothing to restore")
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("read undo record: %w", err)
	}
	var rec undoRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return core.Expense{}, fmt.Errorf("decode undo record: %w", err)
	}
	if rec.Owner != owner {
		return core.Expense{}, fmt.Errorf("last deletion belongs to %q, not %q", rec.Owner, owner)
	}
	date, err := core.ParseDate(rec.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("decode undo record: %w", err)
	}
	return core.Expense{
		ID: rec.ID,
		Classification: core.Classification{
			Category:          core.Category(rec.Category),
			Subcategory:       core.Subcategory(rec.Subcategory),
			CustomCategory:    rec.CustomCategory,
			CustomSubcategory: rec.CustomSubcategory,
		},
		Amount:      core.Money{Cents: rec.AmountCents},
		Description: rec.Description,
		Date:        date,
		CreatedAt:   rec.CreatedAt,
		RecurringID: rec.RecurringID,
	}, nil
}
