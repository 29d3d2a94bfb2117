// Package filestore is the local-only ledger backend: one JSON document per
// owner, optionally encrypted with an age passphrase.
package filestore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"filippo.io/age"

	"budgetly/internal/core"
	"budgetly/internal/storage"
	"budgetly/internal/storage/memory"
)

const (
	plainExt     = ".json"
	encryptedExt = ".json.age"

	// ageHeader prefixes every age-encrypted file.
	ageHeader = "age-encryption.org"
)

// ErrLocked is returned when an encrypted document is read without a passphrase.
var ErrLocked = errors.New("ledger file is encrypted and no passphrase is configured")

// Options configures the file store.
type Options struct {
	// Passphrase enables encryption when non-empty.
	Passphrase string
	// WorkFactor is the scrypt log2 cost; zero keeps age's default.
	WorkFactor int
}

// Store persists each owner's ledger as a file under a directory.
type Store struct {
	mu        sync.Mutex
	dir       string
	recipient *age.ScryptRecipient
	identity  *age.ScryptIdentity
	now       func() time.Time
}

var (
	_ storage.LedgerStore  = (*Store)(nil)
	_ storage.Materializer = (*Store)(nil)
	_ storage.OwnerLister  = (*Store)(nil)
)

// New opens a store rooted at dir, creating it if needed.
func New(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	s := &Store{dir: dir, now: time.Now}
	if opts.Passphrase != "" {
		recipient, err := age.NewScryptRecipient(opts.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("create recipient: %w", err)
		}
		if opts.WorkFactor > 0 {
			recipient.SetWorkFactor(opts.WorkFactor)
		}
		identity, err := age.NewScryptIdentity(opts.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("create identity: %w", err)
		}
		s.recipient, s.identity = recipient, identity
	}
	return s, nil
}

// Encrypted reports whether new writes are encrypted.
func (s *Store) Encrypted() bool { return s.recipient != nil }

func (s *Store) path(ownerID string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(ownerID))
	if s.Encrypted() {
		return filepath.Join(s.dir, name+encryptedExt)
	}
	return filepath.Join(s.dir, name+plainExt)
}

func (s *Store) load(ownerID string) (memory.Ledger, error) {
	data, err := os.ReadFile(s.path(ownerID))
	if errors.Is(err, os.ErrNotExist) {
		return memory.Ledger{}, nil
	}
	if err != nil {
		return memory.Ledger{}, fmt.Errorf("read ledger: %w", err)
	}
	if bytes.HasPrefix(data, []byte(ageHeader)) {
		if s.identity == nil {
			return memory.Ledger{}, ErrLocked
		}
		r, err := age.Decrypt(bytes.NewReader(data), s.identity)
		if err != nil {
			return memory.Ledger{}, fmt.Errorf("decrypt ledger: %w", err)
		}
		if data, err = io.ReadAll(r); err != nil {
			return memory.Ledger{}, fmt.Errorf("decrypt ledger: %w", err)
		}
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return memory.Ledger{}, fmt.Errorf("decode ledger: %w", err)
	}
	return doc.decode()
}

func (s *Store) save(ownerID string, l memory.Ledger) error {
	data, err := json.MarshalIndent(encodeLedger(ownerID, l), "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if s.recipient != nil {
		var buf bytes.Buffer
		w, err := age.Encrypt(&buf, s.recipient)
		if err != nil {
			return fmt.Errorf("encrypt ledger: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("encrypt ledger: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("encrypt ledger: %w", err)
		}
		data = buf.Bytes()
	}
	return atomicWrite(s.path(ownerID), data)
}

// atomicWrite replaces path through a temp file and rename.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// view runs fn against a scratch copy of the owner's ledger.
func (s *Store) view(op, ownerID string, fn func(m *memory.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.load(ownerID)
	if err != nil {
		return storage.Wrap(op, err)
	}
	m := memory.New().WithClock(s.now)
	m.Import(ownerID, l)
	return fn(m)
}

// mutate is view followed by writing the result back when fn succeeds.
func (s *Store) mutate(op, ownerID string, fn func(m *memory.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.load(ownerID)
	if err != nil {
		return storage.Wrap(op, err)
	}
	m := memory.New().WithClock(s.now)
	m.Import(ownerID, l)
	if err := fn(m); err != nil {
		return err
	}
	return storage.Wrap(op, s.save(ownerID, m.Export(ownerID)))
}

func (s *Store) ListExpenses(ctx context.Context, ownerID string) (out []core.Expense, err error) {
	err = s.view("list expenses", ownerID, func(m *memory.Store) error {
		out, err = m.ListExpenses(ctx, ownerID)
		return err
	})
	return out, err
}

func (s *Store) GetExpense(ctx context.Context, ownerID, id string) (out core.Expense, err error) {
	err = s.view("get expense", ownerID, func(m *memory.Store) error {
		out, err = m.GetExpense(ctx, ownerID, id)
		return err
	})
	return out, err
}

func (s *Store) CreateExpense(ctx context.Context, ownerID string, e core.Expense) (out core.Expense, err error) {
	err = s.mutate("create expense", ownerID, func(m *memory.Store) error {
		out, err = m.CreateExpense(ctx, ownerID, e)
		return err
	})
	return out, err
}

func (s *Store) UpdateExpense(ctx context.Context, ownerID, id string, p core.ExpensePatch) (out core.Expense, err error) {
	err = s.mutate("update expense", ownerID, func(m *memory.Store) error {
		out, err = m.UpdateExpense(ctx, ownerID, id, p)
		return err
	})
	return out, err
}

func (s *Store) DeleteExpense(ctx context.Context, ownerID, id string) error {
	return s.mutate("delete expense", ownerID, func(m *memory.Store) error {
		return m.DeleteExpense(ctx, ownerID, id)
	})
}

func (s *Store) ListBudgets(ctx context.Context, ownerID string) (out []core.Budget, err error) {
	err = s.view("list budgets", ownerID, func(m *memory.Store) error {
		out, err = m.ListBudgets(ctx, ownerID)
		return err
	})
	return out, err
}

func (s *Store) UpsertBudget(ctx context.Context, ownerID string, b core.Budget) (out core.Budget, err error) {
	err = s.mutate("upsert budget", ownerID, func(m *memory.Store) error {
		out, err = m.UpsertBudget(ctx, ownerID, b)
		return err
	})
	return out, err
}

func (s *Store) DeleteBudget(ctx context.Context, ownerID string, category core.Category) error {
	return s.mutate("delete budget", ownerID, func(m *memory.Store) error {
		return m.DeleteBudget(ctx, ownerID, category)
	})
}

func (s *Store) ListRecurringTemplates(ctx context.Context, ownerID string) (out []core.RecurringTemplate, err error) {
	err = s.view("list recurring templates", ownerID, func(m *memory.Store) error {
		out, err = m.ListRecurringTemplates(ctx, ownerID)
		return err
	})
	return out, err
}

func (s *Store) GetRecurringTemplate(ctx context.Context, ownerID, id string) (out core.RecurringTemplate, err error) {
	err = s.view("get recurring template", ownerID, func(m *memory.Store) error {
		out, err = m.GetRecurringTemplate(ctx, ownerID, id)
		return err
	})
	return out, err
}

func (s *Store) CreateRecurringTemplate(ctx context.Context, ownerID string, rt core.RecurringTemplate) (out core.RecurringTemplate, err error) {
	err = s.mutate("create recurring template", ownerID, func(m *memory.Store) error {
		out, err = m.CreateRecurringTemplate(ctx, ownerID, rt)
		return err
	})
	return out, err
}

func (s *Store) UpdateRecurringTemplate(ctx context.Context, ownerID, id string, p core.RecurringTemplatePatch) (out core.RecurringTemplate, err error) {
	err = s.mutate("update recurring template", ownerID, func(m *memory.Store) error {
		out, err = m.UpdateRecurringTemplate(ctx, ownerID, id, p)
		return err
	})
	return out, err
}

func (s *Store) DeleteRecurringTemplate(ctx context.Context, ownerID, id string) error {
	return s.mutate("delete recurring template", ownerID, func(m *memory.Store) error {
		return m.DeleteRecurringTemplate(ctx, ownerID, id)
	})
}

// Materialize writes the expense and the template marker in one file replace.
func (s *Store) Materialize(ctx context.Context, ownerID string, e core.Expense, templateID string, generatedAt time.Time) (out core.Expense, err error) {
	err = s.mutate("materialize", ownerID, func(m *memory.Store) error {
		out, err = m.Materialize(ctx, ownerID, e, templateID, generatedAt)
		return err
	})
	return out, err
}

// ListOwners decodes the owner ids from the document file names.
func (s *Store) ListOwners(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storage.Wrap("list owners", err)
	}
	var owners []string
	for _, entry := range entries {
		name := entry.Name()
		var base string
		switch {
		case strings.HasSuffix(name, encryptedExt):
			base = strings.TrimSuffix(name, encryptedExt)
		case strings.HasSuffix(name, plainExt):
			base = strings.TrimSuffix(name, plainExt)
		default:
			continue
		}
		id, err := base64.RawURLEncoding.DecodeString(base)
		if err != nil {
			continue
		}
		owners = append(owners, string(id))
	}
	sort.Strings(owners)
	return owners, nil
}

func (s *Store) Close() error { return nil }
