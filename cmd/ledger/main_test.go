package main

import (
	"context"
	"testing"

	"budgetly/internal/backend"
	"budgetly/internal/core"
	"budgetly/internal/storage/filestore"
)

func runLedger(t *testing.T, args ...string) {
	t.Helper()
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("ledger %v: %v", args, err)
	}
}

func TestLedgerCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LEDGER_BACKEND", string(backend.FileBackend))
	t.Setenv("FILE_STORE_DIR", dir)
	t.Setenv("LOG_LEVEL", "error")

	runLedger(t, "--owner", "alice", "add", "-c", "Food", "-a", "12.50", "-d", "Lunch", "--date", "2024-03-01")
	runLedger(t, "--owner", "alice", "budgets", "set", "Food", "300")
	runLedger(t, "--owner", "alice", "budgets", "set", "overall", "2000")
	runLedger(t, "--owner", "alice", "templates", "add", "-c", "Bills", "-s", "Rent", "-a", "900", "-d", "Flat", "--start", "2024-01-01")
	runLedger(t, "--owner", "alice", "tick", "--at", "2024-03-02T09:00:00Z")
	runLedger(t, "--owner", "alice", "list", "--month", "all")
	runLedger(t, "--owner", "alice", "stats")

	store, err := filestore.New(dir, filestore.Options{})
	if err != nil {
		t.Fatalf("filestore.New() error = %v", err)
	}
	ctx := context.Background()
	expenses, err := store.ListExpenses(ctx, "alice")
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("ListExpenses() = %d expenses, want lunch and one rent", len(expenses))
	}
	budgets, err := store.ListBudgets(ctx, "alice")
	if err != nil {
		t.Fatalf("ListBudgets() error = %v", err)
	}
	if len(budgets) != 2 {
		t.Errorf("ListBudgets() = %d budgets, want 2", len(budgets))
	}

	var lunch core.Expense
	for _, e := range expenses {
		if e.Description == "Lunch" {
			lunch = e
		}
	}
	runLedger(t, "--owner", "alice", "delete", lunch.ID)
	if _, err := store.GetExpense(ctx, "alice", lunch.ID); err == nil {
		t.Fatal("expense still present after delete")
	}
	runLedger(t, "--owner", "alice", "restore")
	expenses, _ = store.ListExpenses(ctx, "alice")
	if len(expenses) != 2 {
		t.Errorf("after restore ListExpenses() = %d, want 2", len(expenses))
	}
}
