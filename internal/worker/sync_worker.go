// Package worker mirrors transactions to the ledger backup in the
// background, driven by queue messages and a periodic sweep.
package worker

import (
	"context"
	"errors"
	"fmt"

	"agency/internal/amqp"
	"agency/internal/core"
	"agency/internal/log"
	"agency/internal/sheets"
	"agency/internal/storage"
)

// SyncWorker consumes transaction events and keeps the backup ledger in
// step with the database. The deleter is optional; without one, delete
// events are acknowledged and dropped.
type SyncWorker struct {
	repo      *storage.Repository
	writer    sheets.LedgerWriter
	deleter   sheets.LedgerDeleter
	batchSize int
	logger    *log.Logger
}

func NewSyncWorker(repo *storage.Repository, writer sheets.LedgerWriter, deleter sheets.LedgerDeleter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		repo:      repo,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
		logger:    log.New(log.Config{Component: log.ComponentWorker}),
	}
}

// HandleSyncMessage mirrors one transaction by ID. A row deleted between
// publish and delivery is not an error.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	t, err := w.repo.GetTransaction(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.logger.WarnContext(ctx, "Transaction vanished before sync", log.FieldTransactionID, msg.ID)
			return nil
		}
		return fmt.Errorf("load transaction %d: %w", msg.ID, err)
	}
	return w.syncTransaction(ctx, t.ID, t)
}

// HandleDeleteMessage drops the mirrored ledger row for a deleted
// transaction, using the snapshot carried in the message.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.TransactionDeleteMessage) error {
	if w.deleter == nil {
		w.logger.WarnContext(ctx, "No ledger deleter configured, dropping delete event", log.FieldTransactionID, msg.ID)
		return nil
	}
	if err := w.deleter.Delete(ctx, msg.Transaction()); err != nil {
		return fmt.Errorf("delete mirrored row %d: %w", msg.ID, err)
	}
	w.logger.InfoContext(ctx, "Removed mirrored transaction", log.FieldTransactionID, msg.ID)
	return nil
}

// ProcessPendingTransactions sweeps one batch of rows whose sync is
// pending or previously failed. Per-row failures are recorded and the
// sweep continues.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.repo.PendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	var failed int
	for _, t := range pending {
		if err := w.syncTransaction(ctx, t.ID, t); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync transaction", log.FieldError, err, log.FieldTransactionID, t.ID)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pending transactions failed to sync", failed, len(pending))
	}
	return nil
}

// StartupSyncCheck runs one sweep at boot to drain rows that accumulated
// while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Running startup sync check")
	if err := w.ProcessPendingTransactions(ctx); err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	return nil
}

func (w *SyncWorker) syncTransaction(ctx context.Context, id int64, t core.Transaction) error {
	rowRef, err := w.writer.Append(ctx, t)
	if err != nil {
		if markErr := w.repo.MarkSyncError(ctx, id); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to record sync error", log.FieldError, markErr, log.FieldTransactionID, id)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.repo.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	w.logger.InfoContext(ctx, "Transaction synced to ledger", log.FieldTransactionID, id, log.FieldSheetsRef, rowRef)
	return nil
}
