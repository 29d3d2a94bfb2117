package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"budgetly/internal/amqp"
	"budgetly/internal/core"
	"budgetly/internal/storage"
	"budgetly/internal/storage/memory"
)

const owner = "owner-1"

func newTemplate(t *testing.T, store storage.LedgerStore, ownerID, desc string, freq core.Frequency, start core.Date) core.RecurringTemplate {
	t.Helper()
	rt, err := store.CreateRecurringTemplate(context.Background(), ownerID, core.RecurringTemplate{
		Classification: core.Classification{Category: core.Bills, Subcategory: "Rent"},
		Amount:         core.Money{Cents: 120000},
		Description:    desc,
		Frequency:      freq,
		StartDate:      start,
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("CreateRecurringTemplate() error = %v", err)
	}
	return rt
}

func TestRecurrenceEngine_MonthlyScenario(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rt := newTemplate(t, store, owner, "Rent", core.Monthly, core.NewDate(2024, 1, 1))
	engine := NewRecurrenceEngine(store)

	jan1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	res, err := engine.Run(ctx, owner, jan1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Generated) != 1 || res.Checked != 1 {
		t.Fatalf("Run() generated %d checked %d, want 1 and 1", len(res.Generated), res.Checked)
	}
	got := res.Generated[0]
	if got.Description != "Rent (Auto)" {
		t.Errorf("Description = %q, want %q", got.Description, "Rent (Auto)")
	}
	if got.Date.String() != "2024-01-01" {
		t.Errorf("Date = %s, want 2024-01-01", got.Date)
	}
	if got.RecurringID != rt.ID || got.Amount.Cents != 120000 || got.Subcategory != "Rent" {
		t.Errorf("generated expense does not copy the template: %+v", got)
	}
	if len(res.Updates) != 1 || !res.Updates[0].LastGenerated.Equal(jan1) {
		t.Errorf("Updates = %+v, want marker at %v", res.Updates, jan1)
	}

	stored, _ := store.GetRecurringTemplate(ctx, owner, rt.ID)
	if stored.LastGenerated == nil || !stored.LastGenerated.Equal(jan1) {
		t.Errorf("stored marker = %v, want %v", stored.LastGenerated, jan1)
	}

	res, _ = engine.Run(ctx, owner, jan1.Add(5*time.Hour))
	if len(res.Generated) != 0 {
		t.Errorf("second run in January generated %d, want 0", len(res.Generated))
	}

	res, _ = engine.Run(ctx, owner, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if len(res.Generated) != 1 {
		t.Errorf("February run generated %d, want 1", len(res.Generated))
	}

	all, _ := store.ListExpenses(ctx, owner)
	if len(all) != 2 {
		t.Errorf("ledger holds %d expenses, want 2", len(all))
	}
}

func TestRecurrenceEngine_SkipsPausedAndFuture(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	paused := newTemplate(t, store, owner, "Gym", core.Weekly, core.NewDate(2024, 1, 1))
	if _, err := store.UpdateRecurringTemplate(ctx, owner, paused.ID, core.RecurringTemplatePatch{IsActive: new(bool)}); err != nil {
		t.Fatal(err)
	}
	newTemplate(t, store, owner, "Insurance", core.Yearly, core.NewDate(2024, 6, 1))

	res, err := NewRecurrenceEngine(store).Run(ctx, owner, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Checked != 1 {
		t.Errorf("Checked = %d, want 1", res.Checked)
	}
	if len(res.Generated) != 0 {
		t.Errorf("Generated = %d, want 0", len(res.Generated))
	}
}

func TestRecurrenceEngine_ConcurrentTicksGenerateOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	newTemplate(t, store, owner, "Rent", core.Monthly, core.NewDate(2024, 1, 1))
	templates, _ := store.ListRecurringTemplates(ctx, owner)
	engine := NewRecurrenceEngine(store)
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.Tick(ctx, owner, templates, now); err != nil {
				t.Errorf("Tick() error = %v", err)
			}
		}()
	}
	wg.Wait()

	all, _ := store.ListExpenses(ctx, owner)
	if len(all) != 1 {
		t.Errorf("concurrent ticks produced %d expenses, want 1", len(all))
	}
}

func TestRecurrenceEngine_WithoutMaterializer(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	rt := newTemplate(t, mem, owner, "Rent", core.Daily, core.NewDate(2024, 1, 1))
	now := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	res, err := NewRecurrenceEngine(plainStore{mem}).Run(ctx, owner, now)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Generated) != 1 {
		t.Fatalf("Generated = %d, want 1", len(res.Generated))
	}
	stored, _ := mem.GetRecurringTemplate(ctx, owner, rt.ID)
	if stored.LastGenerated == nil || !stored.LastGenerated.Equal(now) {
		t.Errorf("marker = %v, want %v", stored.LastGenerated, now)
	}
}

func TestRecurrenceEngine_CompensatesFailedMarker(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	bad := newTemplate(t, mem, owner, "Rent", core.Monthly, core.NewDate(2024, 1, 1))
	good := newTemplate(t, mem, owner, "Phone", core.Monthly, core.NewDate(2024, 1, 1))
	store := markerFailingStore{LedgerStore: plainStore{mem}, failFor: map[string]bool{bad.ID: true}}

	res, err := NewRecurrenceEngine(store).Run(ctx, owner, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Failures) != 1 || res.Failures[0].TemplateID != bad.ID {
		t.Fatalf("Failures = %+v, want one for %s", res.Failures, bad.ID)
	}
	if !errors.Is(res.Failures[0].Err, errMarker) {
		t.Errorf("failure error = %v, want %v", res.Failures[0].Err, errMarker)
	}
	if len(res.Generated) != 1 || res.Generated[0].RecurringID != good.ID {
		t.Errorf("Generated = %+v, want only %s", res.Generated, good.ID)
	}

	all, _ := mem.ListExpenses(ctx, owner)
	for _, e := range all {
		if e.RecurringID == bad.ID {
			t.Errorf("expense %s from failed template was not rolled back", e.ID)
		}
	}
}

func TestRecurrenceEngine_PublishesGenerated(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rt := newTemplate(t, store, owner, "Rent", core.Monthly, core.NewDate(2024, 1, 1))
	pub := &recordingPublisher{}

	res, err := NewRecurrenceEngine(store, WithEnginePublisher(pub), WithConcurrency(1)).
		Run(ctx, owner, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != amqp.ExpenseGenerated || ev.TemplateID != rt.ID || ev.ExpenseID != res.Generated[0].ID || ev.OwnerID != owner {
		t.Errorf("event = %+v", ev)
	}
}

func TestRecurrenceEngine_RunAll(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	newTemplate(t, store, "alice", "Rent", core.Monthly, core.NewDate(2024, 1, 1))
	newTemplate(t, store, "bob", "Rent", core.Monthly, core.NewDate(2024, 1, 1))
	newTemplate(t, store, "bob", "Netflix", core.Monthly, core.NewDate(2024, 1, 1))

	res, err := NewRecurrenceEngine(store).RunAll(ctx, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if res.Checked != 3 || len(res.Generated) != 3 {
		t.Errorf("RunAll() checked %d generated %d, want 3 and 3", res.Checked, len(res.Generated))
	}

	if _, err := NewRecurrenceEngine(plainStore{store}).RunAll(ctx, time.Now()); err == nil {
		t.Error("RunAll() on a store without owner listing should fail")
	}
}

func TestRecurrenceEngine_InvalidInput(t *testing.T) {
	var nilEngine *RecurrenceEngine
	if _, err := nilEngine.Tick(context.Background(), owner, nil, time.Now()); err == nil {
		t.Error("Tick() on nil engine should fail")
	}
	if _, err := NewRecurrenceEngine(memory.New()).Tick(context.Background(), "", nil, time.Now()); err == nil {
		t.Error("Tick() with empty owner should fail")
	}
}

func TestGeneratedExpense_TruncatesLongDescription(t *testing.T) {
	rt := core.RecurringTemplate{
		ID:             "t1",
		Classification: core.Classification{Category: core.Food},
		Amount:         core.Money{Cents: 100},
		Description:    strings.Repeat("é", core.MaxDescriptionLength),
	}
	e := GeneratedExpense(rt, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := e.Validate(); err != nil {
		t.Fatalf("generated expense invalid: %v", err)
	}
	if !strings.HasSuffix(e.Description, AutoSuffix) {
		t.Errorf("Description = %q, want suffix %q", e.Description, AutoSuffix)
	}
}
