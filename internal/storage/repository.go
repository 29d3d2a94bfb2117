package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"budgetly/internal/core"
)

// SQLRepository is the ledger store backed by SQLite or PostgreSQL.
type SQLRepository struct {
	db      *sqlx.DB
	dialect Dialect
	now     func() time.Time
}

var (
	_ LedgerStore  = (*SQLRepository)(nil)
	_ Materializer = (*SQLRepository)(nil)
	_ OwnerLister  = (*SQLRepository)(nil)
)

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies migrations.
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := RunMigrations(DialectSQLite, dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sqlx.Open(DialectSQLite.DriverName(), dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLRepository{db: db, dialect: DialectSQLite, now: time.Now}, nil
}

// NewPostgresRepository connects to dsn and applies migrations.
func NewPostgresRepository(dsn string) (*SQLRepository, error) {
	if err := RunMigrations(DialectPostgres, dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	db, err := sqlx.Open(DialectPostgres.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLRepository{db: db, dialect: DialectPostgres, now: time.Now}, nil
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const timeLayout = time.RFC3339Nano

type expenseRow struct {
	ID                string `db:"id"`
	OwnerID           string `db:"owner_id"`
	AmountCents       int64  `db:"amount_cents"`
	Category          string `db:"category"`
	Subcategory       string `db:"subcategory"`
	CustomCategory    string `db:"custom_category"`
	CustomSubcategory string `db:"custom_subcategory"`
	Description       string `db:"description"`
	ExpenseDate       string `db:"expense_date"`
	CreatedAt         string `db:"created_at"`
	RecurringID       string `db:"recurring_id"`
}

const expenseColumns = `id, owner_id, amount_cents, category, subcategory, custom_category,
	custom_subcategory, description, expense_date, created_at, recurring_id`

func toExpenseRow(ownerID string, e core.Expense) expenseRow {
	return expenseRow{
		ID:                e.ID,
		OwnerID:           ownerID,
		AmountCents:       e.Amount.Cents,
		Category:          string(e.Category),
		Subcategory:       string(e.Subcategory),
		CustomCategory:    e.CustomCategory,
		CustomSubcategory: e.CustomSubcategory,
		Description:       e.Description,
		ExpenseDate:       e.Date.String(),
		CreatedAt:         e.CreatedAt.UTC().Format(timeLayout),
		RecurringID:       e.RecurringID,
	}
}

func (row expenseRow) toCore() (core.Expense, error) {
	date, err := core.ParseDate(row.ExpenseDate)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", row.ExpenseDate, err)
	}
	created, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at %q: %w", row.CreatedAt, err)
	}
	return core.Expense{
		ID: row.ID,
		Classification: core.Classification{
			Category:          core.Category(row.Category),
			Subcategory:       core.Subcategory(row.Subcategory),
			CustomCategory:    row.CustomCategory,
			CustomSubcategory: row.CustomSubcategory,
		},
		Amount:      core.Money{Cents: row.AmountCents},
		Description: row.Description,
		Date:        date,
		CreatedAt:   created,
		RecurringID: row.RecurringID,
	}, nil
}

type templateRow struct {
	ID                string         `db:"id"`
	OwnerID           string         `db:"owner_id"`
	AmountCents       int64          `db:"amount_cents"`
	Category          string         `db:"category"`
	Subcategory       string         `db:"subcategory"`
	CustomCategory    string         `db:"custom_category"`
	CustomSubcategory string         `db:"custom_subcategory"`
	Description       string         `db:"description"`
	Frequency         string         `db:"frequency"`
	StartDate         string         `db:"start_date"`
	LastGenerated     sql.NullString `db:"last_generated"`
	IsActive          bool           `db:"is_active"`
	CreatedAt         string         `db:"created_at"`
}

const templateColumns = `id, owner_id, amount_cents, category, subcategory, custom_category,
	custom_subcategory, description, frequency, start_date, last_generated, is_active, created_at`

func toTemplateRow(ownerID string, rt core.RecurringTemplate) templateRow {
	row := templateRow{
		ID:                rt.ID,
		OwnerID:           ownerID,
		AmountCents:       rt.Amount.Cents,
		Category:          string(rt.Category),
		Subcategory:       string(rt.Subcategory),
		CustomCategory:    rt.CustomCategory,
		CustomSubcategory: rt.CustomSubcategory,
		Description:       rt.Description,
		Frequency:         string(rt.Frequency),
		StartDate:         rt.StartDate.String(),
		IsActive:          rt.IsActive,
		CreatedAt:         rt.CreatedAt.UTC().Format(timeLayout),
	}
	if rt.LastGenerated != nil {
		row.LastGenerated = sql.NullString{String: rt.LastGenerated.Format(timeLayout), Valid: true}
	}
	return row
}

func (row templateRow) toCore() (core.RecurringTemplate, error) {
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("parse start date %q: %w", row.StartDate, err)
	}
	created, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("parse created_at %q: %w", row.CreatedAt, err)
	}
	rt := core.RecurringTemplate{
		ID: row.ID,
		Classification: core.Classification{
			Category:          core.Category(row.Category),
			Subcategory:       core.Subcategory(row.Subcategory),
			CustomCategory:    row.CustomCategory,
			CustomSubcategory: row.CustomSubcategory,
		},
		Amount:      core.Money{Cents: row.AmountCents},
		Description: row.Description,
		Frequency:   core.Frequency(row.Frequency),
		StartDate:   start,
		IsActive:    row.IsActive,
		CreatedAt:   created,
	}
	if row.LastGenerated.Valid {
		lg, err := time.Parse(timeLayout, row.LastGenerated.String)
		if err != nil {
			return core.RecurringTemplate{}, fmt.Errorf("parse last_generated %q: %w", row.LastGenerated.String, err)
		}
		rt.LastGenerated = &lg
	}
	return rt, nil
}

type budgetRow struct {
	Category   string `db:"category"`
	Period     string `db:"period"`
	LimitCents int64  `db:"limit_cents"`
}

// execNamed binds a named query and rebinds it for the dialect.
func execNamed(ctx context.Context, ext sqlx.ExtContext, query string, arg any) (sql.Result, error) {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return nil, fmt.Errorf("bind named query: %w", err)
	}
	return ext.ExecContext(ctx, ext.Rebind(q), args...)
}

func (r *SQLRepository) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	var rows []expenseRow
	q := r.db.Rebind(`SELECT ` + expenseColumns + ` FROM expenses WHERE owner_id = ? ORDER BY seq`)
	if err := r.db.SelectContext(ctx, &rows, q, ownerID); err != nil {
		return nil, Wrap("list expenses", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := row.toCore()
		if err != nil {
			return nil, Wrap("list expenses", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func getExpense(ctx context.Context, q sqlx.ExtContext, ownerID, id string) (core.Expense, error) {
	var row expenseRow
	query := q.Rebind(`SELECT ` + expenseColumns + ` FROM expenses WHERE owner_id = ? AND id = ?`)
	if err := sqlx.GetContext(ctx, q, &row, query, ownerID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, core.ErrNotFound
		}
		return core.Expense{}, err
	}
	return row.toCore()
}

func (r *SQLRepository) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	e, err := getExpense(ctx, r.db, ownerID, id)
	return e, Wrap("get expense", err)
}

const insertExpense = `INSERT INTO expenses (` + expenseColumns + `) VALUES (:id, :owner_id, :amount_cents,
	:category, :subcategory, :custom_category, :custom_subcategory, :description, :expense_date,
	:created_at, :recurring_id)`

func (r *SQLRepository) CreateExpense(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error) {
	e = PrepareExpense(e, r.now())
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if _, err := execNamed(ctx, r.db, insertExpense, toExpenseRow(ownerID, e)); err != nil {
		return core.Expense{}, Wrap("create expense", err)
	}

	slog.DebugContext(ctx, "Expense saved",
		"owner_id", ownerID,
		"expense_id", e.ID,
		"amount_cents", e.Amount.Cents,
		"backend", string(r.dialect))
	return e, nil
}

const updateExpense = `UPDATE expenses SET amount_cents = :amount_cents, category = :category,
	subcategory = :subcategory, custom_category = :custom_category,
	custom_subcategory = :custom_subcategory, description = :description,
	expense_date = :expense_date WHERE owner_id = :owner_id AND id = :id`

func (r *SQLRepository) UpdateExpense(ctx context.Context, ownerID, id string, p core.ExpensePatch) (core.Expense, error) {
	var updated core.Expense
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getExpense(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		_, err = execNamed(ctx, tx, updateExpense, toExpenseRow(ownerID, updated))
		return err
	})
	if err != nil {
		return core.Expense{}, Wrap("update expense", err)
	}
	return updated, nil
}

func (r *SQLRepository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	q := r.db.Rebind(`DELETE FROM expenses WHERE owner_id = ? AND id = ?`)
	res, err := r.db.ExecContext(ctx, q, ownerID, id)
	return Wrap("delete expense", affectedOne(res, err))
}

func (r *SQLRepository) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	var rows []budgetRow
	q := r.db.Rebind(`SELECT category, period, limit_cents FROM budgets WHERE owner_id = ? ORDER BY seq`)
	if err := r.db.SelectContext(ctx, &rows, q, ownerID); err != nil {
		return nil, Wrap("list budgets", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Budget{
			Category: core.Category(row.Category),
			Period:   row.Period,
			Limit:    core.Money{Cents: row.LimitCents},
		})
	}
	return out, nil
}

const upsertBudget = `INSERT INTO budgets (owner_id, category, period, limit_cents)
	VALUES (:owner_id, :category, :period, :limit_cents)
	ON CONFLICT (owner_id, category, period) DO UPDATE SET limit_cents = excluded.limit_cents`

func (r *SQLRepository) UpsertBudget(ctx context.Context, ownerID string, b core.Budget) (core.Budget, error) {
	if b.Period == "" {
		b.Period = core.PeriodMonthly
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	arg := map[string]any{
		"owner_id":    ownerID,
		"category":    string(b.Category),
		"period":      b.Period,
		"limit_cents": b.Limit.Cents,
	}
	if _, err := execNamed(ctx, r.db, upsertBudget, arg); err != nil {
		return core.Budget{}, Wrap("upsert budget", err)
	}
	return b, nil
}

func (r *SQLRepository) DeleteBudget(ctx context.Context, ownerID string, category core.Category) error {
	q := r.db.Rebind(`DELETE FROM budgets WHERE owner_id = ? AND category = ? AND period = ?`)
	res, err := r.db.ExecContext(ctx, q, ownerID, string(category), core.PeriodMonthly)
	return Wrap("delete budget", affectedOne(res, err))
}

func (r *SQLRepository) ListRecurringTemplates(ctx context.Context, ownerID string) ([]core.RecurringTemplate, error) {
	var rows []templateRow
	q := r.db.Rebind(`SELECT ` + templateColumns + ` FROM recurring_templates WHERE owner_id = ? ORDER BY seq`)
	if err := r.db.SelectContext(ctx, &rows, q, ownerID); err != nil {
		return nil, Wrap("list recurring templates", err)
	}
	out := make([]core.RecurringTemplate, 0, len(rows))
	for _, row := range rows {
		rt, err := row.toCore()
		if err != nil {
			return nil, Wrap("list recurring templates", err)
		}
		out = append(out, rt)
	}
	return out, nil
}

func getTemplate(ctx context.Context, q sqlx.ExtContext, ownerID, id string) (core.RecurringTemplate, error) {
	var row templateRow
	query := q.Rebind(`SELECT ` + templateColumns + ` FROM recurring_templates WHERE owner_id = ? AND id = ?`)
	if err := sqlx.GetContext(ctx, q, &row, query, ownerID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.RecurringTemplate{}, core.ErrNotFound
		}
		return core.RecurringTemplate{}, err
	}
	return row.toCore()
}

func (r *SQLRepository) GetRecurringTemplate(ctx context.Context, ownerID, id string) (core.RecurringTemplate, error) {
	rt, err := getTemplate(ctx, r.db, ownerID, id)
	return rt, Wrap("get recurring template", err)
}

const insertTemplate = `INSERT INTO recurring_templates (` + templateColumns + `) VALUES (:id, :owner_id,
	:amount_cents, :category, :subcategory, :custom_category, :custom_subcategory, :description,
	:frequency, :start_date, :last_generated, :is_active, :created_at)`

func (r *SQLRepository) CreateRecurringTemplate(ctx context.Context, ownerID string, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	rt = PrepareTemplate(rt, r.now())
	if err := rt.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}
	if _, err := execNamed(ctx, r.db, insertTemplate, toTemplateRow(ownerID, rt)); err != nil {
		return core.RecurringTemplate{}, Wrap("create recurring template", err)
	}
	return rt, nil
}

const updateTemplate = `UPDATE recurring_templates SET amount_cents = :amount_cents,
	category = :category, subcategory = :subcategory, custom_category = :custom_category,
	custom_subcategory = :custom_subcategory, description = :description, frequency = :frequency,
	start_date = :start_date, last_generated = :last_generated, is_active = :is_active
	WHERE owner_id = :owner_id AND id = :id`

func (r *SQLRepository) UpdateRecurringTemplate(ctx context.Context, ownerID, id string, p core.RecurringTemplatePatch) (core.RecurringTemplate, error) {
	var updated core.RecurringTemplate
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		updated, err = updateTemplateTx(ctx, tx, ownerID, id, p)
		return err
	})
	if err != nil {
		return core.RecurringTemplate{}, Wrap("update recurring template", err)
	}
	return updated, nil
}

func updateTemplateTx(ctx context.Context, tx *sqlx.Tx, ownerID, id string, p core.RecurringTemplatePatch) (core.RecurringTemplate, error) {
	current, err := getTemplate(ctx, tx, ownerID, id)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	updated := p.Apply(current)
	if err := updated.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}
	if _, err := execNamed(ctx, tx, updateTemplate, toTemplateRow(ownerID, updated)); err != nil {
		return core.RecurringTemplate{}, err
	}
	return updated, nil
}

func (r *SQLRepository) DeleteRecurringTemplate(ctx context.Context, ownerID, id string) error {
	q := r.db.Rebind(`DELETE FROM recurring_templates WHERE owner_id = ? AND id = ?`)
	res, err := r.db.ExecContext(ctx, q, ownerID, id)
	return Wrap("delete recurring template", affectedOne(res, err))
}

// Materialize inserts a generated expense and advances the template marker
// in one transaction.
func (r *SQLRepository) Materialize(ctx context.Context, ownerID string, e core.Expense, templateID string, generatedAt time.Time) (core.Expense, error) {
	e = PrepareExpense(e, r.now())
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := execNamed(ctx, tx, insertExpense, toExpenseRow(ownerID, e)); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		_, err := updateTemplateTx(ctx, tx, ownerID, templateID, core.MarkGenerated(generatedAt))
		return err
	})
	if err != nil {
		return core.Expense{}, Wrap("materialize", err)
	}
	return e, nil
}

// ListOwners returns every owner with expenses or templates.
func (r *SQLRepository) ListOwners(ctx context.Context) ([]string, error) {
	var owners []string
	q := `SELECT owner_id FROM recurring_templates UNION SELECT owner_id FROM expenses ORDER BY 1`
	if err := r.db.SelectContext(ctx, &owners, q); err != nil {
		return nil, Wrap("list owners", err)
	}
	return owners, nil
}

func (r *SQLRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
