package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"agency/internal/core"
)

// PartnerOverview is a partner row decorated with the number of creators
// and employees currently attributed to it.
type PartnerOverview struct {
	core.Partner
	CreatorCount  int64
	EmployeeCount int64
}

func (r *Repository) ListPartners(ctx context.Context) ([]PartnerOverview, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.notes,
		       (SELECT COUNT(*) FROM creators c WHERE c.partner_id = p.id),
		       (SELECT COUNT(*) FROM employees e WHERE e.partner_id = p.id)
		FROM partners p
		ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	var out []PartnerOverview
	for rows.Next() {
		var p PartnerOverview
		if err := rows.Scan(&p.ID, &p.Name, &p.Notes, &p.CreatorCount, &p.EmployeeCount); err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetPartner(ctx context.Context, id int64) (core.Partner, error) {
	var p core.Partner
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, notes FROM partners WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Partner{}, ErrNotFound
		}
		return core.Partner{}, fmt.Errorf("get partner: %w", err)
	}
	return p, nil
}

func (r *Repository) CreatePartner(ctx context.Context, p core.Partner) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO partners (name, notes) VALUES (?, ?)`, p.Name, p.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateName
		}
		return 0, fmt.Errorf("insert partner: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("partner id: %w", err)
	}

	slog.InfoContext(ctx, "Partner created", "id", id, "name", p.Name)
	return id, nil
}

func (r *Repository) UpdatePartner(ctx context.Context, p core.Partner) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE partners SET name = ?, notes = ? WHERE id = ?`, p.Name, p.Notes, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("update partner: %w", err)
	}
	return requireAffected(res)
}

// DeletePartner removes the partner row. Creators and employees attributed
// to it keep their rows with the reference set to NULL.
func (r *Repository) DeletePartner(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM partners WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete partner: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Partner deleted", "id", id)
	return nil
}
