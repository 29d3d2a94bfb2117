package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"budgetly/internal/core"
	ports "budgetly/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is used when Options.SheetName is empty.
const DefaultSheetName = "Ledger"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string

	// Serializes lookup-then-write so two upserts never claim the same row.
	mu sync.Mutex
}

// Ensure interface conformance
var (
	_ ports.ExpenseMirror = (*Client)(nil)
	_ ports.RowLister     = (*Client)(nil)
)

// Options configures the Sheets mirror. Credentials come from
// CredentialsJSON, CredentialsFile or GOOGLE_APPLICATION_CREDENTIALS, in
// that order.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheetName}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// Upsert writes the expense row, replacing the row that already holds its id.
func (c *Client) Upsert(ctx context.Context, ownerID string, e core.Expense) (string, error) {
	if e.ID == "" {
		return "", errors.New("expense id is required")
	}
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	column, err := c.idColumn(ctx)
	if err != nil {
		return "", err
	}

	if len(column) == 0 {
		if err := c.writeRow(ctx, 1, header); err != nil {
			return "", fmt.Errorf("failed to write header in sheet %s: %w", c.sheet, err)
		}
		column = [][]any{header[:1]}
	}

	row := findRow(column, e.ID)
	if row == 0 {
		row = nextFreeRow(column)
	}

	if err := c.writeRow(ctx, row, rowValues(ports.RowFor(ownerID, e))); err != nil {
		return "", fmt.Errorf("failed to update row %d in sheet %s: %w", row, c.sheet, err)
	}

	return c.rowRange(row), nil
}

// Remove clears the row holding expenseID. A missing row is not an error.
func (c *Client) Remove(ctx context.Context, ownerID, expenseID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	column, err := c.idColumn(ctx)
	if err != nil {
		return err
	}
	row := findRow(column, expenseID)
	if row == 0 {
		slog.DebugContext(ctx, "Expense not present in sheet, nothing to remove",
			"owner_id", ownerID,
			"expense_id", expenseID)
		return nil
	}

	rng := c.rowRange(row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", rng, err)
	}
	return nil
}

// ListRows returns the rows of one owner in sheet order.
func (c *Client) ListRows(ctx context.Context, ownerID string) ([]ports.Row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:%s", c.sheet, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []ports.Row
	for _, values := range resp.Values {
		r, ok := parseRow(values)
		if !ok || r.OwnerID != ownerID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *Client) idColumn(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet dimensions for %s: %w", c.sheet, err)
	}
	return resp.Values, nil
}

func (c *Client) writeRow(ctx context.Context, row int, values []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rowRange(row), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheet, row, lastColumn, row)
}
