// Package storagetest holds the behaviour every ledger store must share.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) storage.LedgerStore

const owner = "owner-1"

func expense(desc string, cents int64, d core.Date) core.Expense {
	return core.Expense{
		Classification: core.Classification{Category: core.Food},
		Amount:         core.Money{Cents: cents},
		Description:    desc,
		Date:           d,
	}
}

func template(desc string) core.RecurringTemplate {
	return core.RecurringTemplate{
		Classification: core.Classification{Category: core.Bills, Subcategory: "Rent"},
		Amount:         core.Money{Cents: 150000},
		Description:    desc,
		Frequency:      core.Monthly,
		StartDate:      core.NewDate(2024, 1, 1),
		IsActive:       true,
	}
}

// Run exercises the LedgerStore contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("ExpenseRoundTrip", func(t *testing.T) { testExpenseRoundTrip(t, newStore(t)) })
	t.Run("ExpenseOrderAndOwners", func(t *testing.T) { testExpenseOrderAndOwners(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("Budgets", func(t *testing.T) { testBudgets(t, newStore(t)) })
	t.Run("Templates", func(t *testing.T) { testTemplates(t, newStore(t)) })
	t.Run("Materialize", func(t *testing.T) { testMaterialize(t, newStore(t)) })
	t.Run("MarkerKeepsOffset", func(t *testing.T) { testMarkerKeepsOffset(t, newStore(t)) })
}

func testExpenseRoundTrip(t *testing.T, s storage.LedgerStore) {
	ctx := context.Background()
	before, err := s.ListExpenses(ctx, owner)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}

	created, err := s.CreateExpense(ctx, owner, expense("Lunch", 1250, core.NewDate(2024, 5, 2)))
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("CreateExpense() did not assign id/createdAt: %+v", created)
	}

	got, err := s.GetExpense(ctx, owner, created.ID)
	if err != nil {
		t.Fatalf("GetExpense() error = %v", err)
	}
	if got.Description != "Lunch" || got.Amount.Cents != 1250 || got.Date.String() != "2024-05-02" {
		t.Errorf("GetExpense() = %+v", got)
	}

	desc := "Team lunch"
	updated, err := s.UpdateExpense(ctx, owner, created.ID, core.ExpensePatch{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}
	if updated.Description != desc || updated.Amount.Cents != 1250 || updated.ID != created.ID {
		t.Errorf("UpdateExpense() = %+v", updated)
	}

	bad := ""
	if _, err := s.UpdateExpense(ctx, owner, created.ID, core.ExpensePatch{Description: &bad}); !errors.Is(err, core.ErrEmptyDescription) {
		t.Errorf("UpdateExpense(empty) error = %v, want ErrEmptyDescription", err)
	}
	if got, _ := s.GetExpense(ctx, owner, created.ID); got.Description != desc {
		t.Errorf("rejected update was partially applied: %q", got.Description)
	}

	if err := s.DeleteExpense(ctx, owner, created.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	after, err := s.ListExpenses(ctx, owner)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(after) != len(before) {
		t.Errorf("ledger size after round trip = %d, want %d", len(after), len(before))
	}
}

func testExpenseOrderAndOwners(t *testing.T, s storage.LedgerStore) {
	ctx := context.Background()
	for _, d := range []string{"first", "second", "third"} {
		if _, err := s.CreateExpense(ctx, owner, expense(d, 100, core.NewDate(2024, 1, 1))); err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
	}
	if _, err := s.CreateExpense(ctx, "someone-else", expense("other", 100, core.NewDate(2024, 1, 1))); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	list, err := s.ListExpenses(ctx, owner)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(list) != 3 || list[0].Description != "first" || list[2].Description != "third" {
		t.Errorf("ListExpenses() = %+v", list)
	}
	if lister, ok := s.(storage.OwnerLister); ok {
		owners, err := lister.ListOwners(ctx)
		if err != nil {
			t.Fatalf("ListOwners() error = %v", err)
		}
		if len(owners) != 2 {
			t.Errorf("ListOwners() = %v, want 2 owners", owners)
		}
	}
}

func testNotFound(t *testing.T, s storage.LedgerStore) {
	ctx := context.Background()
	desc := "x"
	checks := map[string]error{
		"GetExpense":              func() error { _, err := s.GetExpense(ctx, owner, "missing"); return err }(),
		"UpdateExpense":           func() error { _, err := s.UpdateExpense(ctx, owner, "missing", core.ExpensePatch{Description: &desc}); return err }(),
		"DeleteExpense":           s.DeleteExpense(ctx, owner, "missing"),
		"DeleteBudget":            s.DeleteBudget(ctx, owner, core.Food),
		"GetRecurringTemplate":    func() error { _, err := s.GetRecurringTemplate(ctx, owner, "missing"); return err }(),
		"UpdateRecurringTemplate": func() error { _, err := s.UpdateRecurringTemplate(ctx, owner, "missing", core.RecurringTemplatePatch{}); return err }(),
		"DeleteRecurringTemplate": s.DeleteRecurringTemplate(ctx, owner, "missing"),
	}
	for name, err := range checks {
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("%s() error = %v, want ErrNotFound", name, err)
		}
	}

	created, err := s.CreateExpense(ctx, owner, expense("mine", 100, core.NewDate(2024, 1, 1)))
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if err := s.DeleteExpense(ctx, "intruder", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-owner DeleteExpense() error = %v, want ErrNotFound", err)
	}
}

func testBudgets(t *testing.T, s storage.LedgerStore) {
	ctx := context.Background()
	if _, err := s.UpsertBudget(ctx, owner, core.NewCategoryBudget(core.Food, core.Money{})); !errors.Is(err, core.ErrInvalidBudget) {
		t.Fatalf("UpsertBudget(0) error = %v, want ErrInvalidBudget", err)
	}
	for _, b := range []core.Budget{
		core.NewCategoryBudget(core.Food, core.Money{Cents: 1000}),
		core.NewOverallBudget(core.Money{Cents: 5000}),
		core.NewCategoryBudget(core.Food, core.Money{Cents: 2000}),
	} {
		if _, err := s.UpsertBudget(ctx, owner, b); err != nil {
			t.Fatalf("UpsertBudget() error = %v", err)
		}
	}
	list, err := s.ListBudgets(ctx, owner)
	if err != nil {
		t.Fatalf("ListBudgets() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListBudgets() = %+v, want 2 budgets", list)
	}
	for _, b := range list {
		if b.Category == core.Food && b.Limit.Cents != 2000 {
			t.Errorf("Food limit = %d, want 2000 after upsert", b.Limit.Cents)
		}
	}
	if err := s.DeleteBudget(ctx, owner, ""); err != nil {
		t.Fatalf("DeleteBudget(overall) error = %v", err)
	}
	if list, _ := s.ListBudgets(ctx, owner); len(list) != 1 || list[0].IsOverall() {
		t.Errorf("ListBudgets() after delete = %+v", list)
	}
}

func testTemplates(t *testing.T, s storage.LedgerStore) {
	ctx := context.Background()
	rt, err := s.CreateRecurringTemplate(ctx, owner, template("Rent"))
	if err != nil {
		t.Fatalf("CreateRecurringTemplate() error = %v", err)
	}
	if rt.ID == "" || rt.LastGenerated != nil {
		t.Fatalf("CreateRecurringTemplate() = %+v", rt)
	}

	at := time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)
	paused := false
	updated, err := s.UpdateRecurringTemplate(ctx, owner, rt.ID, core.RecurringTemplatePatch{LastGenerated: &at, IsActive: &paused})
	if err != nil {
		t.Fatalf("UpdateRecurringTemplate() error = %v", err)
	}
	if updated.IsActive || updated.LastGenerated == nil || !updated.LastGenerated.Equal(at) {
		t.Errorf("UpdateRecurringTemplate() = %+v", updated)
	}

	early := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.UpdateRecurringTemplate(ctx, owner, rt.ID, core.RecurringTemplatePatch{LastGenerated: &early}); !errors.Is(err, core.ErrGeneratedBeforeStart) {
		t.Errorf("UpdateRecurringTemplate(early) error = %v, want ErrGeneratedBeforeStart", err)
	}

	got, err := s.GetRecurringTemplate(ctx, owner, rt.ID)
	if err != nil {
		t.Fatalf("GetRecurringTemplate() error = %v", err)
	}
	if got.LastGenerated == nil || !got.LastGenerated.Equal(at) || got.Subcategory != "Rent" {
		t.Errorf("GetRecurringTemplate() = %+v", got)
	}

	if err := s.DeleteRecurringTemplate(ctx, owner, rt.ID); err != nil {
		t.Fatalf("DeleteRecurringTemplate() error = %v", err)
	}
	if list, _ := s.ListRecurringTemplates(ctx, owner); len(list) != 0 {
		t.Errorf("ListRecurringTemplates() after delete = %d", len(list))
	}
}

func testMaterialize(t *testing.T, s storage.LedgerStore) {
	m, ok := s.(storage.Materializer)
	if !ok {
		t.Skip("store does not materialize atomically")
	}
	ctx := context.Background()
	rt, err := s.CreateRecurringTemplate(ctx, owner, template("Rent"))
	if err != nil {
		t.Fatalf("CreateRecurringTemplate() error = %v", err)
	}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := expense("Rent (Auto)", 150000, core.NewDate(2024, 1, 1))
	e.RecurringID = rt.ID
	created, err := m.Materialize(ctx, owner, e, rt.ID, at)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if created.RecurringID != rt.ID {
		t.Errorf("Materialize() RecurringID = %q, want %q", created.RecurringID, rt.ID)
	}
	got, _ := s.GetRecurringTemplate(ctx, owner, rt.ID)
	if got.LastGenerated == nil || !got.LastGenerated.Equal(at) {
		t.Errorf("template marker = %v, want %v", got.LastGenerated, at)
	}

	if _, err := m.Materialize(ctx, owner, expense("ghost", 100, core.NewDate(2024, 1, 1)), "missing", at); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Materialize(missing) error = %v, want ErrNotFound", err)
	}
	list, _ := s.ListExpenses(ctx, owner)
	if len(list) != 1 {
		t.Errorf("ListExpenses() = %d entries, want 1 (failed materialize must not leave an expense)", len(list))
	}
}

// A marker set early on the start day east of UTC must still fall on the
// start day after a reload, or later template updates fail validation.
func testMarkerKeepsOffset(t *testing.T, s storage.LedgerStore) {
	ctx := context.Background()
	rt, err := s.CreateRecurringTemplate(ctx, owner, template("Rent"))
	if err != nil {
		t.Fatalf("CreateRecurringTemplate() error = %v", err)
	}
	ist := time.FixedZone("IST", 5*3600+30*60)
	at := time.Date(2024, 1, 1, 3, 0, 0, 0, ist)
	if _, err := s.UpdateRecurringTemplate(ctx, owner, rt.ID, core.MarkGenerated(at)); err != nil {
		t.Fatalf("UpdateRecurringTemplate(mark) error = %v", err)
	}

	got, err := s.GetRecurringTemplate(ctx, owner, rt.ID)
	if err != nil {
		t.Fatalf("GetRecurringTemplate() error = %v", err)
	}
	if got.LastGenerated == nil || !got.LastGenerated.Equal(at) {
		t.Fatalf("template marker = %v, want %v", got.LastGenerated, at)
	}
	if d := core.DateOf(*got.LastGenerated); !d.Equal(rt.StartDate) {
		t.Errorf("marker date = %s, want %s", d, rt.StartDate)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("reloaded template Validate() error = %v", err)
	}

	inactive := false
	paused, err := s.UpdateRecurringTemplate(ctx, owner, rt.ID, core.RecurringTemplatePatch{IsActive: &inactive})
	if err != nil {
		t.Fatalf("pause after early generation: %v", err)
	}
	if paused.IsActive {
		t.Error("template still active after pause")
	}
}
