package storage_test

import (
	"path/filepath"
	"testing"

	"budgetly/internal/storage"
	"budgetly/internal/storage/storagetest"
)

func TestSQLiteRepository(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.LedgerStore {
		repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
		if err != nil {
			t.Fatalf("NewSQLiteRepository() error = %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	repo.Close()

	// Migrations must be idempotent on an existing database.
	repo, err = storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	repo.Close()
}
