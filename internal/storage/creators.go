package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"agency/internal/core"
)

// CreatorOverview is a creator row decorated with its partner's name and
// the total income attributed to the creator.
type CreatorOverview struct {
	core.Creator
	PartnerName string
	TotalIncome float64
}

func (r *Repository) ListCreators(ctx context.Context) ([]CreatorOverview, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.fixed_salary, c.commission_pct, c.notes, c.investment,
		       c.partner_id, IFNULL(p.name, ''),
		       IFNULL(SUM(t.amount), 0)
		FROM creators c
		LEFT JOIN partners p ON c.partner_id = p.id
		LEFT JOIN transactions t ON t.creator_id = c.id AND t.type = 'income'
		GROUP BY c.id
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list creators: %w", err)
	}
	defer rows.Close()

	var out []CreatorOverview
	for rows.Next() {
		var c CreatorOverview
		var partnerID sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &c.FixedSalary, &c.CommissionPct, &c.Notes,
			&c.Investment, &partnerID, &c.PartnerName, &c.TotalIncome); err != nil {
			return nil, fmt.Errorf("scan creator: %w", err)
		}
		c.PartnerID = scanNullableID(partnerID)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetCreator(ctx context.Context, id int64) (core.Creator, error) {
	var c core.Creator
	var partnerID sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, fixed_salary, commission_pct, notes, investment, partner_id
		FROM creators WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.FixedSalary, &c.CommissionPct, &c.Notes, &c.Investment, &partnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Creator{}, ErrNotFound
		}
		return core.Creator{}, fmt.Errorf("get creator: %w", err)
	}
	c.PartnerID = scanNullableID(partnerID)
	return c, nil
}

func (r *Repository) CreateCreator(ctx context.Context, c core.Creator) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO creators (name, fixed_salary, commission_pct, notes, investment, partner_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, c.FixedSalary, c.CommissionPct, c.Notes, c.Investment, nullableID(c.PartnerID))
	if err != nil {
		return 0, fmt.Errorf("insert creator: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("creator id: %w", err)
	}

	slog.InfoContext(ctx, "Creator created", "id", id, "name", c.Name)
	return id, nil
}

func (r *Repository) UpdateCreator(ctx context.Context, c core.Creator) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE creators
		SET name = ?, fixed_salary = ?, commission_pct = ?, notes = ?, investment = ?, partner_id = ?
		WHERE id = ?`,
		c.Name, c.FixedSalary, c.CommissionPct, c.Notes, c.Investment, nullableID(c.PartnerID), c.ID)
	if err != nil {
		return fmt.Errorf("update creator: %w", err)
	}
	return requireAffected(res)
}

// DeleteCreator removes the creator row. Transactions attributed to it are
// kept with the reference detached; financial history survives the entity.
func (r *Repository) DeleteCreator(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM creators WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete creator: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Creator deleted", "id", id)
	return nil
}
