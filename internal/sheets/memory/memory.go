package memory

import (
	"context"
	"fmt"
	"sync"

	"agency/internal/core"
	ports "agency/internal/sheets"
)

// Store is an in-memory ledger used by tests and local development.
type Store struct {
	mu    sync.Mutex
	rows  []core.Transaction
	fail  bool
	calls int
}

var (
	_ ports.LedgerWriter  = (*Store)(nil)
	_ ports.LedgerDeleter = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// SetFail makes Append calls fail until cleared, for exercising error paths.
func (s *Store) SetFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail {
		return "", fmt.Errorf("append refused")
	}
	s.rows = append(s.rows, t)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Delete removes the stored row with the matching ID. Unknown IDs are a
// no-op, mirroring the real ledger adapter.
func (s *Store) Delete(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if row.ID == t.ID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of the stored ledger.
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.rows))
	copy(out, s.rows)
	return out
}

// AppendCalls reports how many Append attempts were made.
func (s *Store) AppendCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
