// Package services coordinates storage writes with the messaging side
// effects that follow them.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"agency/internal/amqp"
	"agency/internal/core"
	"agency/internal/storage"
)

// TransactionService owns the transaction write path. Messaging is best
// effort: a failed publish is logged, never surfaced, because the sweeper
// picks up unpublished rows from their sync status.
type TransactionService struct {
	repo      *storage.Repository
	publisher *amqp.Client // nil when messaging is disabled
}

func NewTransactionService(repo *storage.Repository, publisher *amqp.Client) *TransactionService {
	return &TransactionService{repo: repo, publisher: publisher}
}

// Create validates and stores a transaction. For income rows with
// withCommission set, the derived 2% withdrawal-commission expense is
// written atomically alongside it.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction, withCommission bool) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateTransaction(ctx, t, withCommission)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	s.publishSync(ctx, id)
	return id, nil
}

// Update edits the mutable fields of a transaction: category and
// description. The row is queued for re-sync.
func (s *TransactionService) Update(ctx context.Context, id int64, category, description string) error {
	if strings.TrimSpace(category) == "" {
		return core.ErrEmptyCategory
	}

	if err := s.repo.UpdateTransaction(ctx, id, category, description); err != nil {
		return err
	}

	s.publishSync(ctx, id)
	return nil
}

// Delete removes a transaction. The row snapshot is taken first so the
// delete event can still identify the mirrored ledger row.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	t, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionDelete(ctx, t); err != nil {
			slog.WarnContext(ctx, "Failed to publish transaction delete", "error", err, "id", id)
		}
	}
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// List returns transactions newest first, optionally bounded by inclusive
// YYYY-MM-DD dates.
func (s *TransactionService) List(ctx context.Context, start, end string) ([]storage.TransactionRow, error) {
	if start != "" {
		if _, err := core.ParseDate(start); err != nil {
			return nil, err
		}
	}
	if end != "" {
		if _, err := core.ParseDate(end); err != nil {
			return nil, err
		}
	}
	return s.repo.ListTransactions(ctx, start, end)
}

func (s *TransactionService) publishSync(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id); err != nil {
		slog.WarnContext(ctx, "Failed to publish transaction sync", "error", err, "id", id)
	}
}
