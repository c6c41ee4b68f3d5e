package storage

import (
	"context"
	"fmt"
	"sort"

	"agency/internal/core"
)

// ExpenseBreakdown is the fixed five-bucket expense decomposition shown on
// the dashboard. Salaries and Investments are entity snapshots; the other
// buckets are transaction-derived.
type ExpenseBreakdown struct {
	Salaries             float64
	CreatorCommission    float64
	WithdrawalCommission float64
	Investments          float64
	OtherExpenses        float64
}

func (b ExpenseBreakdown) Total() float64 {
	return b.Salaries + b.CreatorCommission + b.WithdrawalCommission + b.Investments + b.OtherExpenses
}

type CreatorRevenue struct {
	ID      int64
	Name    string
	Revenue float64
}

type CreatorProfit struct {
	ID     int64
	Name   string
	Profit float64
}

type CategoryTotal struct {
	Category string
	Total    float64
}

// MonthTotals is one row of the monthly trend series.
type MonthTotals struct {
	Month   string // YYYY-MM
	Income  float64
	Expense float64
}

type PartnerTotal struct {
	ID    int64
	Name  string
	Total float64
}

// CurrentMonthIncome sums income transactions whose timestamp falls in the
// current calendar month, local time. Returns 0 on an empty set.
func (r *Repository) CurrentMonthIncome(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, `
		SELECT IFNULL(SUM(amount), 0)
		FROM transactions
		WHERE type = 'income'
		  AND strftime('%Y-%m', occurred_at) = strftime('%Y-%m', 'now', 'localtime')`).
		Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("current month income: %w", err)
	}
	return total, nil
}

// ExpenseBreakdown computes the five-bucket decomposition. Creator
// commission is an agency-wide figure over all attributed income; it is
// deliberately not derived from the per-creator profitability query.
func (r *Repository) ExpenseBreakdown(ctx context.Context) (ExpenseBreakdown, error) {
	var b ExpenseBreakdown

	err := r.db.QueryRowContext(ctx, `
		SELECT (SELECT IFNULL(SUM(fixed_salary), 0) FROM creators)
		     + (SELECT IFNULL(SUM(salary), 0) FROM employees)`).
		Scan(&b.Salaries)
	if err != nil {
		return ExpenseBreakdown{}, fmt.Errorf("salaries bucket: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT IFNULL(SUM(t.amount * c.commission_pct / 100), 0)
		FROM transactions t
		JOIN creators c ON t.creator_id = c.id
		WHERE t.type = 'income' AND c.commission_pct > 0`).
		Scan(&b.CreatorCommission)
	if err != nil {
		return ExpenseBreakdown{}, fmt.Errorf("creator commission bucket: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT IFNULL(SUM(amount), 0)
		FROM transactions
		WHERE type = 'expense' AND category = ?`, core.CategoryWithdrawalCommission).
		Scan(&b.WithdrawalCommission)
	if err != nil {
		return ExpenseBreakdown{}, fmt.Errorf("withdrawal commission bucket: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT IFNULL(SUM(investment), 0) FROM creators`).
		Scan(&b.Investments)
	if err != nil {
		return ExpenseBreakdown{}, fmt.Errorf("investments bucket: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT IFNULL(SUM(amount), 0)
		FROM transactions
		WHERE type = 'expense' AND category NOT IN (?, ?, ?)`,
		core.CategoryWithdrawalCommission, core.CategorySalary, core.CategoryCreatorInvestment).
		Scan(&b.OtherExpenses)
	if err != nil {
		return ExpenseBreakdown{}, fmt.Errorf("other expenses bucket: %w", err)
	}

	return b, nil
}

func (r *Repository) TopCreatorsByRevenue(ctx context.Context, limit int) ([]CreatorRevenue, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, SUM(t.amount)
		FROM creators c
		JOIN transactions t ON t.creator_id = c.id
		WHERE t.type = 'income'
		GROUP BY c.id
		ORDER BY SUM(t.amount) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top creators by revenue: %w", err)
	}
	defer rows.Close()

	var out []CreatorRevenue
	for rows.Next() {
		var c CreatorRevenue
		if err := rows.Scan(&c.ID, &c.Name, &c.Revenue); err != nil {
			return nil, fmt.Errorf("scan creator revenue: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TopCreatorsByProfit ranks creators by attributed income minus fixed
// salary, commission and investment. Creators whose profit is not strictly
// positive are excluded.
func (r *Repository) TopCreatorsByProfit(ctx context.Context, limit int) ([]CreatorProfit, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name,
		       IFNULL(SUM(CASE WHEN t.type = 'income' THEN t.amount ELSE 0 END), 0)
		         - c.fixed_salary
		         - (IFNULL(SUM(CASE WHEN t.type = 'income' THEN t.amount ELSE 0 END), 0) * c.commission_pct / 100)
		         - c.investment AS profit
		FROM creators c
		LEFT JOIN transactions t ON t.creator_id = c.id
		GROUP BY c.id
		HAVING profit > 0
		ORDER BY profit DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top creators by profit: %w", err)
	}
	defer rows.Close()

	var out []CreatorProfit
	for rows.Next() {
		var c CreatorProfit
		if err := rows.Scan(&c.ID, &c.Name, &c.Profit); err != nil {
			return nil, fmt.Errorf("scan creator profit: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) ExpenseByCategory(ctx context.Context, limit int) ([]CategoryTotal, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount)
		FROM transactions
		WHERE type = 'expense'
		GROUP BY category
		ORDER BY SUM(amount) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("expense by category: %w", err)
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var c CategoryTotal
		if err := rows.Scan(&c.Category, &c.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MonthlyTrend returns per-month income and expense totals, ascending.
// start and end are optional inclusive YYYY-MM-DD filters compared against
// the calendar date, not the timestamp. No matches yields an empty series.
func (r *Repository) MonthlyTrend(ctx context.Context, start, end string) ([]MonthTotals, error) {
	query := `
		SELECT strftime('%Y-%m', occurred_at) AS month,
		       IFNULL(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
		       IFNULL(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0)
		FROM transactions`
	var args []any
	var where []string
	if start != "" {
		where = append(where, "date(occurred_at) >= ?")
		args = append(args, start)
	}
	if end != "" {
		where = append(where, "date(occurred_at) <= ?")
		args = append(args, end)
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " GROUP BY month ORDER BY month ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}
	defer rows.Close()

	var out []MonthTotals
	for rows.Next() {
		var m MonthTotals
		if err := rows.Scan(&m.Month, &m.Income, &m.Expense); err != nil {
			return nil, fmt.Errorf("scan month totals: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Months returns the distinct year-months present in transaction data,
// newest first.
func (r *Repository) Months(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT strftime('%Y-%m', occurred_at) AS month
		FROM transactions
		ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("distinct months: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PartnerExpenseTotals allocates costs per partner: fixed salaries of
// attributed creators, salaries of attributed employees, and the creator
// commission restricted to that partner's creators. Partners with nothing
// allocated are excluded; the rest are ranked descending.
func (r *Repository) PartnerExpenseTotals(ctx context.Context) ([]PartnerTotal, error) {
	partners, err := r.ListPartners(ctx)
	if err != nil {
		return nil, err
	}

	var out []PartnerTotal
	for _, p := range partners {
		var creatorSalaries, employeeSalaries, commission float64

		err := r.db.QueryRowContext(ctx,
			`SELECT IFNULL(SUM(fixed_salary), 0) FROM creators WHERE partner_id = ?`, p.ID).
			Scan(&creatorSalaries)
		if err != nil {
			return nil, fmt.Errorf("partner creator salaries: %w", err)
		}

		err = r.db.QueryRowContext(ctx,
			`SELECT IFNULL(SUM(salary), 0) FROM employees WHERE partner_id = ?`, p.ID).
			Scan(&employeeSalaries)
		if err != nil {
			return nil, fmt.Errorf("partner employee salaries: %w", err)
		}

		err = r.db.QueryRowContext(ctx, `
			SELECT IFNULL(SUM(t.amount * c.commission_pct / 100), 0)
			FROM transactions t
			JOIN creators c ON t.creator_id = c.id
			WHERE t.type = 'income' AND c.commission_pct > 0 AND c.partner_id = ?`, p.ID).
			Scan(&commission)
		if err != nil {
			return nil, fmt.Errorf("partner creator commission: %w", err)
		}

		total := creatorSalaries + employeeSalaries + commission
		if total <= 0 {
			continue
		}
		out = append(out, PartnerTotal{ID: p.ID, Name: p.Name, Total: total})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}
