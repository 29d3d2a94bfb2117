package filestore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"budgetly/internal/core"
	"budgetly/internal/storage"
	"budgetly/internal/storage/storagetest"
)

func TestPlainStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.LedgerStore {
		s, err := New(t.TempDir(), Options{})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		return s
	})
}

func TestEncryptedStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.LedgerStore {
		s, err := New(t.TempDir(), Options{Passphrase: "correct horse", WorkFactor: 10})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		return s
	})
}

func TestEncryptedFileIsOpaque(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir, Options{Passphrase: "secret", WorkFactor: 10})
	if err != nil {
		t.Fatal(err)
	}
	e := core.Expense{
		Classification: core.Classification{Category: core.Food},
		Amount:         core.Money{Cents: 1234},
		Description:    "very private dinner",
		Date:           core.NewDate(2024, 3, 3),
	}
	if _, err := s.CreateExpense(ctx, "alice", e); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	raw, err := os.ReadFile(s.path("alice"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte(ageHeader)) || bytes.Contains(raw, []byte("private")) {
		t.Fatalf("ledger file is not encrypted")
	}

	// A store without a passphrase reads the plain file name.
	locked, err := New(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(s.path("alice"), locked.path("alice")); err != nil {
		t.Fatal(err)
	}
	if _, err := locked.ListExpenses(ctx, "alice"); !errors.Is(err, ErrLocked) {
		t.Errorf("ListExpenses() without passphrase error = %v, want ErrLocked", err)
	}

	owners, err := locked.ListOwners(ctx)
	if err != nil || len(owners) != 1 || owners[0] != "alice" {
		t.Errorf("ListOwners() = %v, %v", owners, err)
	}
}
