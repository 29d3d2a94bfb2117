package google

import (
	"fmt"
	"strconv"
	"strings"

	"budgetly/internal/core"
	ports "budgetly/internal/sheets"
)

// Column layout of the mirror sheet, A through H.
var header = []any{"ID", "Owner", "Date", "Category", "Subcategory", "Description", "Amount", "Recurring"}

const lastColumn = "H"

func rowValues(r ports.Row) []any {
	return []any{
		r.ExpenseID,
		r.OwnerID,
		r.Date.String(),
		r.Category,
		r.Subcategory,
		r.Description,
		r.Amount.String(),
		r.RecurringID,
	}
}

// parseRow converts a values row back into a Row. Header, blank and
// malformed rows report false.
func parseRow(values []any) (ports.Row, bool) {
	cols := toStrings(values)
	if len(cols) < 7 || cols[0] == "" || strings.EqualFold(cols[0], "ID") {
		return ports.Row{}, false
	}
	date, err := core.ParseDate(cols[2])
	if err != nil {
		return ports.Row{}, false
	}
	cents, ok := parseAmountToCents(cols[6])
	if !ok {
		return ports.Row{}, false
	}
	return ports.Row{
		ExpenseID:   cols[0],
		OwnerID:     cols[1],
		Date:        date,
		Category:    cols[3],
		Subcategory: cols[4],
		Description: cols[5],
		Amount:      core.Money{Cents: cents},
		RecurringID: safeGet(cols, 7),
	}, true
}

// findRow returns the 1-based sheet row holding id in column A, or 0.
func findRow(column [][]any, id string) int {
	for i, row := range column {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// nextFreeRow returns the first blank row after the header, reusing rows
// cleared by earlier removals.
func nextFreeRow(column [][]any) int {
	for i := 1; i < len(column); i++ {
		if len(column[i]) == 0 || strings.TrimSpace(fmt.Sprint(column[i][0])) == "" {
			return i + 1
		}
	}
	if len(column) == 0 {
		return 2
	}
	return len(column) + 1
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmountToCents accepts "12.50", "12,50" and plain numbers as
// rendered by the Sheets API.
func parseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	if cents, err := core.ParseDecimalToCents(s); err == nil {
		return cents, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64((f * 100.0) + 0.5), true
}
