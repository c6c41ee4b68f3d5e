package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"agency/internal/core"
)

// EmployeeOverview is an employee row decorated with its partner's name.
type EmployeeOverview struct {
	core.Employee
	PartnerName string
}

func (r *Repository) ListEmployees(ctx context.Context) ([]EmployeeOverview, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.name, e.role, e.salary, e.sales, e.commission_pct, e.notes,
		       e.partner_id, IFNULL(p.name, '')
		FROM employees e
		LEFT JOIN partners p ON e.partner_id = p.id
		ORDER BY e.name`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []EmployeeOverview
	for rows.Next() {
		var e EmployeeOverview
		var partnerID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Name, &e.Role, &e.Salary, &e.Sales,
			&e.CommissionPct, &e.Notes, &partnerID, &e.PartnerName); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		e.PartnerID = scanNullableID(partnerID)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) GetEmployee(ctx context.Context, id int64) (core.Employee, error) {
	var e core.Employee
	var partnerID sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, role, salary, sales, commission_pct, notes, partner_id
		FROM employees WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.Role, &e.Salary, &e.Sales, &e.CommissionPct, &e.Notes, &partnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Employee{}, ErrNotFound
		}
		return core.Employee{}, fmt.Errorf("get employee: %w", err)
	}
	e.PartnerID = scanNullableID(partnerID)
	return e, nil
}

func (r *Repository) CreateEmployee(ctx context.Context, e core.Employee) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO employees (name, role, salary, sales, commission_pct, notes, partner_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Role, e.Salary, e.Sales, e.CommissionPct, e.Notes, nullableID(e.PartnerID))
	if err != nil {
		return 0, fmt.Errorf("insert employee: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("employee id: %w", err)
	}

	slog.InfoContext(ctx, "Employee created", "id", id, "name", e.Name)
	return id, nil
}

func (r *Repository) UpdateEmployee(ctx context.Context, e core.Employee) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE employees
		SET name = ?, role = ?, salary = ?, sales = ?, commission_pct = ?, notes = ?, partner_id = ?
		WHERE id = ?`,
		e.Name, e.Role, e.Salary, e.Sales, e.CommissionPct, e.Notes, nullableID(e.PartnerID), e.ID)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return requireAffected(res)
}

func (r *Repository) DeleteEmployee(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Employee deleted", "id", id)
	return nil
}
