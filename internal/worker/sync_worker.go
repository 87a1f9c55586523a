// Package worker mirrors stored transactions into the spreadsheet. It reacts
// to AMQP sync messages and periodically sweeps rows whose sync is pending or
// previously failed, in case a message was lost.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/ledger"
	"finboard/internal/log"
	"finboard/internal/storage"
)

// Store is the slice of the SQLite repository the worker needs.
type Store interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSync, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// Mirror is the spreadsheet side of the sync.
type Mirror interface {
	UpsertTransaction(ctx context.Context, tx core.Transaction) (string, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// sweepConcurrency bounds parallel spreadsheet calls during a sweep.
const sweepConcurrency = 4

type SyncWorker struct {
	storage   Store
	mirror    Mirror
	batchSize int
}

func NewSyncWorker(store Store, mirror Mirror, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &SyncWorker{
		storage:   store,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one AMQP message. A returned error requeues it.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID, "action", msg.Action)

	switch msg.Action {
	case amqp.ActionDelete:
		if err := w.mirror.DeleteTransaction(ctx, msg.ID); err != nil {
			return fmt.Errorf("delete transaction from sheet: %w", err)
		}
		slog.InfoContext(ctx, "Deleted transaction from sheet", "id", msg.ID)
		return nil
	default:
		tx, err := w.storage.GetTransaction(ctx, msg.ID)
		if errors.Is(err, ledger.ErrNotFound) {
			// Deleted before the worker got to it; the delete message follows.
			slog.WarnContext(ctx, "Transaction no longer stored, skipping sync", "id", msg.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get transaction from storage: %w", err)
		}
		return w.syncTransaction(ctx, tx)
	}
}

// ProcessPending syncs one batch of pending or failed transactions and
// returns how many were mirrored.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck runs a larger sweep when the worker starts, to recover
// from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

// Run sweeps pending transactions every interval until ctx is done.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sync sweep failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.storage.GetPendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	results := make([]bool, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for i, p := range pending {
		g.Go(func() error {
			tx, err := w.storage.GetTransaction(gctx, p.ID)
			if err != nil {
				slog.ErrorContext(gctx, "Failed to get pending transaction", "id", p.ID, "error", err)
				if markErr := w.storage.MarkSyncError(gctx, p.ID); markErr != nil {
					slog.ErrorContext(gctx, "Failed to mark sync error", "id", p.ID, "error", markErr)
				}
				return nil
			}
			if err := w.syncTransaction(gctx, tx); err != nil {
				slog.ErrorContext(gctx, "Failed to sync pending transaction", "id", p.ID, "error", err)
				return nil
			}
			results[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	synced := 0
	for _, ok := range results {
		if ok {
			synced++
		}
	}
	return synced, nil
}

func (w *SyncWorker) syncTransaction(ctx context.Context, tx core.Transaction) error {
	ref, err := w.mirror.UpsertTransaction(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("upsert to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, tx.ID); err != nil {
		// The row is in the sheet; the next sweep rewrites it in place.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Synced transaction",
		log.FieldOperation, log.OpSync,
		"id", tx.ID,
		log.FieldSheetsRef, ref,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents)
	return nil
}
