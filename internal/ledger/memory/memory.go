package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/ledger"
)

// SeedFile is the CSV read by NewFromDir, in the export layout.
const SeedFile = "transactions.csv"

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	index map[string]int
}

var _ ledger.Store = (*Store)(nil)

// New returns a store holding seed. Records failing validation or reusing an
// ID are skipped.
func New(seed ...core.Transaction) *Store {
	s := &Store{index: make(map[string]int)}
	for _, tx := range seed {
		_, _ = s.Create(context.Background(), tx)
	}
	return s
}

// NewFromDir seeds the store from base/transactions.csv. A missing file
// yields an empty store.
func NewFromDir(base string) (*Store, error) {
	f, err := os.Open(filepath.Join(base, SeedFile))
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	records, err := export.Decode(f, export.CSV)
	if err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return New(records...), nil
}

func (s *Store) Create(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = core.NewID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[tx.ID]; ok {
		return core.Transaction{}, fmt.Errorf("%w: %s", ledger.ErrDuplicateID, tx.ID)
	}
	s.index[tx.ID] = len(s.items)
	s.items = append(s.items, tx)
	return tx, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return ledger.ErrNotFound
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ID] = j
	}
	return nil
}

// ListTransactions returns a copy of every record in insertion order.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...), nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return s.items[i], nil
}

// Close is a no-op; it lets the store stand in for a closable backend.
func (s *Store) Close() error { return nil }
