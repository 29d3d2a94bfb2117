package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheet emulates the subset of the Sheets values API the client uses.
type fakeSheet struct {
	mu   sync.Mutex
	rows map[int][]any
	puts int
}

var rowRangeRe = regexp.MustCompile(`^[^!]+!A(\d+):H\d+$`)

func newFakeClient(t *testing.T) (*Client, *fakeSheet) {
	t.Helper()
	fake := &fakeSheet{rows: map[int][]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return NewWithService(svc, "sheet-id", ""), fake
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, rng, ok := strings.Cut(r.URL.Path, "/values/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case r.Method == http.MethodGet:
		f.get(w, rng)
	case r.Method == http.MethodPut:
		var body gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Values) != 1 {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		row, ok := parseRowRange(rng)
		if !ok {
			http.Error(w, "bad range "+rng, http.StatusBadRequest)
			return
		}
		f.rows[row] = body.Values[0]
		f.puts++
		writeJSON(w, map[string]any{"updatedRange": rng, "updatedRows": 1})
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":clear"):
		row, ok := parseRowRange(strings.TrimSuffix(rng, ":clear"))
		if !ok {
			http.Error(w, "bad range "+rng, http.StatusBadRequest)
			return
		}
		delete(f.rows, row)
		writeJSON(w, map[string]any{"clearedRange": rng})
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func (f *fakeSheet) get(w http.ResponseWriter, rng string) {
	onlyA := strings.HasSuffix(rng, "!A:A")
	last := 0
	for n := range f.rows {
		if n > last {
			last = n
		}
	}
	values := make([][]any, 0, last)
	for i := 1; i <= last; i++ {
		row, ok := f.rows[i]
		switch {
		case !ok:
			values = append(values, []any{})
		case onlyA:
			values = append(values, row[:1])
		default:
			values = append(values, row)
		}
	}
	writeJSON(w, map[string]any{"range": rng, "majorDimension": "ROWS", "values": values})
}

func (f *fakeSheet) row(n int) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[n]
}

func parseRowRange(rng string) (int, bool) {
	m := rowRangeRe.FindStringSubmatch(rng)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
