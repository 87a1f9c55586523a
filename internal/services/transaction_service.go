package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/ledger"
)

// Publisher sends sync notifications for the spreadsheet mirror.
type Publisher interface {
	PublishTransactionSync(ctx context.Context, id string, action amqp.SyncAction) error
}

// Invalidator is told whenever the stored transactions change.
type Invalidator interface {
	Invalidate()
}

// TransactionService orchestrates transaction writes across the store, the
// sync queue and the report cache.
type TransactionService struct {
	store       ledger.Store
	publisher   Publisher
	invalidator Invalidator
}

// NewTransactionService wires the service. publisher and invalidator may be nil.
func NewTransactionService(store ledger.Store, publisher Publisher, invalidator Invalidator) *TransactionService {
	return &TransactionService{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
	}
}

// Create validates and stores tx, then publishes a sync message.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	// Save first; the mirror is best effort.
	created, err := s.store.Create(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate()

	if err := s.publish(ctx, created.ID, amqp.ActionUpsert); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", created.ID, "error", err)
	}
	return created, nil
}

// Delete removes a transaction and publishes a delete message.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.invalidate()

	if err := s.publish(ctx, id, amqp.ActionDelete); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// List returns stored transactions newest first. An empty typ lists both
// kinds; anything else must parse as a core.Type.
func (s *TransactionService) List(ctx context.Context, typ string) ([]core.Transaction, error) {
	var want core.Type
	if typ != "" {
		t, err := core.ParseType(typ)
		if err != nil {
			return nil, err
		}
		want = t
	}

	all, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(all))
	for _, tx := range all {
		if want == "" || tx.Type == want {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}

func (s *TransactionService) publish(ctx context.Context, id string, action amqp.SyncAction) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message", "id", id)
		return nil
	}
	return s.publisher.PublishTransactionSync(ctx, id, action)
}

func (s *TransactionService) invalidate() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}
