// Package ledger defines the transaction store ports shared by the memory
// and SQLite backends.
package ledger

import (
	"context"
	"errors"

	"finboard/internal/core"
)

var (
	ErrNotFound    = errors.New("transaction not found")
	ErrDuplicateID = errors.New("transaction id already exists")
)

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		// Create stores tx and returns it as persisted. An empty ID is
		// replaced with a generated one.
		Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		Delete(ctx context.Context, id string) error
	}

	// TransactionLister returns every stored transaction in insertion order.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	TransactionReader interface {
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	Store interface {
		TransactionWriter
		TransactionLister
		TransactionReader
	}
)
