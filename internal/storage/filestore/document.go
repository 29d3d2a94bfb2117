package filestore

import (
	"fmt"
	"time"

	"budgetly/internal/core"
	"budgetly/internal/storage/memory"
)

const documentVersion = 1

type document struct {
	Version   int           `json:"version"`
	Owner     string        `json:"owner"`
	Expenses  []expenseDoc  `json:"expenses"`
	Budgets   []budgetDoc   `json:"budgets"`
	Templates []templateDoc `json:"recurring_templates"`
}

type classificationDoc struct {
	Category          string `json:"category"`
	Subcategory       string `json:"subcategory,omitempty"`
	CustomCategory    string `json:"custom_category,omitempty"`
	CustomSubcategory string `json:"custom_subcategory,omitempty"`
}

type expenseDoc struct {
	ID string `json:"id"`
	classificationDoc
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	RecurringID string    `json:"recurring_id,omitempty"`
}

type budgetDoc struct {
	Category   string `json:"category,omitempty"`
	Period     string `json:"period"`
	LimitCents int64  `json:"limit_cents"`
}

type templateDoc struct {
	ID string `json:"id"`
	classificationDoc
	AmountCents   int64      `json:"amount_cents"`
	Description   string     `json:"description"`
	Frequency     string     `json:"frequency"`
	StartDate     string     `json:"start_date"`
	LastGenerated *time.Time `json:"last_generated,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
}

func fromClassification(c core.Classification) classificationDoc {
	return classificationDoc{
		Category:          string(c.Category),
		Subcategory:       string(c.Subcategory),
		CustomCategory:    c.CustomCategory,
		CustomSubcategory: c.CustomSubcategory,
	}
}

func (c classificationDoc) toCore() core.Classification {
	return core.Classification{
		Category:          core.Category(c.Category),
		Subcategory:       core.Subcategory(c.Subcategory),
		CustomCategory:    c.CustomCategory,
		CustomSubcategory: c.CustomSubcategory,
	}
}

func encodeLedger(ownerID string, l memory.Ledger) document {
	doc := document{
		Version:   documentVersion,
		Owner:     ownerID,
		Expenses:  make([]expenseDoc, 0, len(l.Expenses)),
		Budgets:   make([]budgetDoc, 0, len(l.Budgets)),
		Templates: make([]templateDoc, 0, len(l.Templates)),
	}
	for _, e := range l.Expenses {
		doc.Expenses = append(doc.Expenses, expenseDoc{
			ID:                e.ID,
			classificationDoc: fromClassification(e.Classification),
			AmountCents:       e.Amount.Cents,
			Description:       e.Description,
			Date:              e.Date.String(),
			CreatedAt:         e.CreatedAt,
			RecurringID:       e.RecurringID,
		})
	}
	for _, b := range l.Budgets {
		doc.Budgets = append(doc.Budgets, budgetDoc{
			Category:   string(b.Category),
			Period:     b.Period,
			LimitCents: b.Limit.Cents,
		})
	}
	for _, rt := range l.Templates {
		doc.Templates = append(doc.Templates, templateDoc{
			ID:                rt.ID,
			classificationDoc: fromClassification(rt.Classification),
			AmountCents:       rt.Amount.Cents,
			Description:       rt.Description,
			Frequency:         string(rt.Frequency),
			StartDate:         rt.StartDate.String(),
			LastGenerated:     rt.LastGenerated,
			IsActive:          rt.IsActive,
			CreatedAt:         rt.CreatedAt,
		})
	}
	return doc
}

func (doc document) decode() (memory.Ledger, error) {
	if doc.Version != documentVersion {
		return memory.Ledger{}, fmt.Errorf("unsupported document version %d", doc.Version)
	}
	var l memory.Ledger
	for _, e := range doc.Expenses {
		d, err := core.ParseDate(e.Date)
		if err != nil {
			return memory.Ledger{}, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		l.Expenses = append(l.Expenses, core.Expense{
			ID:             e.ID,
			Classification: e.classificationDoc.toCore(),
			Amount:         core.Money{Cents: e.AmountCents},
			Description:    e.Description,
			Date:           d,
			CreatedAt:      e.CreatedAt,
			RecurringID:    e.RecurringID,
		})
	}
	for _, b := range doc.Budgets {
		l.Budgets = append(l.Budgets, core.Budget{
			Category: core.Category(b.Category),
			Period:   b.Period,
			Limit:    core.Money{Cents: b.LimitCents},
		})
	}
	for _, rt := range doc.Templates {
		start, err := core.ParseDate(rt.StartDate)
		if err != nil {
			return memory.Ledger{}, fmt.Errorf("template %s: %w", rt.ID, err)
		}
		l.Templates = append(l.Templates, core.RecurringTemplate{
			ID:             rt.ID,
			Classification: rt.classificationDoc.toCore(),
			Amount:         core.Money{Cents: rt.AmountCents},
			Description:    rt.Description,
			Frequency:      core.Frequency(rt.Frequency),
			StartDate:      start,
			LastGenerated:  rt.LastGenerated,
			IsActive:       rt.IsActive,
			CreatedAt:      rt.CreatedAt,
		})
	}
	return l, nil
}
