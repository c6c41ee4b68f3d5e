package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agency/internal/core"
)

// TransactionRow is a transaction decorated with the attributed creator's
// name, empty when the reference was detached.
type TransactionRow struct {
	core.Transaction
	CreatorName string
}

// ListTransactions returns transactions newest first. start and end are
// optional inclusive YYYY-MM-DD calendar-date filters; empty strings mean
// no bound.
func (r *Repository) ListTransactions(ctx context.Context, start, end string) ([]TransactionRow, error) {
	query := `
		SELECT t.id, t.type, t.category, t.amount, t.description, t.occurred_at,
		       t.creator_id, IFNULL(c.name, '')
		FROM transactions t
		LEFT JOIN creators c ON t.creator_id = c.id`
	var args []any
	var where []string
	if start != "" {
		where = append(where, "date(t.occurred_at) >= ?")
		args = append(args, start)
	}
	if end != "" {
		where = append(where, "date(t.occurred_at) <= ?")
		args = append(args, end)
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY t.occurred_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []TransactionRow
	for rows.Next() {
		var t TransactionRow
		var occurredAt string
		var creatorID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Type, &t.Category, &t.Amount, &t.Description,
			&occurredAt, &creatorID, &t.CreatorName); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.OccurredAt = parseTimestamp(occurredAt)
		t.CreatorID = scanNullableID(creatorID)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var t core.Transaction
	var occurredAt string
	var creatorID sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, type, category, amount, description, occurred_at, creator_id
		FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.Type, &t.Category, &t.Amount, &t.Description, &occurredAt, &creatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	t.OccurredAt = parseTimestamp(occurredAt)
	t.CreatorID = scanNullableID(creatorID)
	return t, nil
}

// CreateTransaction inserts a transaction. For income transactions with
// withCommission set, a derived 2% withdrawal-commission expense is written
// in the same database transaction: both rows commit or neither does.
// Creator attribution is only stored for income transactions.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction, withCommission bool) (int64, error) {
	occurredAt := t.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	stamp := occurredAt.Format(core.TimestampLayout)

	creatorID := t.CreatorID
	if t.Type != core.Income {
		creatorID = nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (type, category, amount, description, occurred_at, creator_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(t.Type), t.Category, t.Amount, t.Description, stamp, nullableID(creatorID))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	if withCommission && t.Type == core.Income {
		commission := t.Amount * core.WithdrawalCommissionRate
		desc := fmt.Sprintf("2%% withdrawal commission on %s", core.FormatUSD(t.Amount))
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (type, category, amount, description, occurred_at)
			VALUES (?, ?, ?, ?, ?)`,
			string(core.Expense), core.CategoryWithdrawalCommission, commission, desc, stamp); err != nil {
			return 0, fmt.Errorf("insert withdrawal commission: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id,
		"type", string(t.Type),
		"category", t.Category,
		"amount", t.Amount,
		"with_commission", withCommission && t.Type == core.Income)
	return id, nil
}

// UpdateTransaction edits the only mutable transaction fields: category and
// description. Amount, type and attribution are immutable after creation.
func (r *Repository) UpdateTransaction(ctx context.Context, id int64, category, description string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, description = ?, sync_status = 'pending'
		WHERE id = ?`,
		category, description, id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireAffected(res)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// PendingSyncTransactions returns transactions not yet mirrored to the
// ledger backup, oldest first. Rows that previously failed are retried.
func (r *Repository) PendingSyncTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, category, amount, description, occurred_at, creator_id
		FROM transactions
		WHERE sync_status IN ('pending', 'error')
		ORDER BY id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var occurredAt string
		var creatorID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Type, &t.Category, &t.Amount, &t.Description,
			&occurredAt, &creatorID); err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		t.OccurredAt = parseTimestamp(occurredAt)
		t.CreatorID = scanNullableID(creatorID)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) MarkSynced(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET sync_status = 'synced', synced_at = ?
		WHERE id = ?`,
		time.Now().Format(core.TimestampLayout), id)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return requireAffected(res)
}

func (r *Repository) MarkSyncError(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	return requireAffected(res)
}

func parseTimestamp(s string) time.Time {
	if t, err := time.ParseInLocation(core.TimestampLayout, s, time.Local); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
