package storage

import (
	"context"
	"math"
	"testing"
	"time"

	"agency/internal/core"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func mustCreate(t *testing.T, repo *Repository, tx core.Transaction) int64 {
	t.Helper()
	id, err := repo.CreateTransaction(context.Background(), tx, false)
	if err != nil {
		t.Fatalf("CreateTransaction(%+v) error = %v", tx, err)
	}
	return id
}

func TestCurrentMonthIncome(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	total, err := repo.CurrentMonthIncome(ctx)
	if err != nil {
		t.Fatalf("CurrentMonthIncome() error = %v", err)
	}
	if total != 0 {
		t.Errorf("CurrentMonthIncome() on empty store = %v, want 0", total)
	}

	now := time.Now()
	lastYear := now.AddDate(-1, 0, 0)

	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 150, OccurredAt: now})
	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 50, OccurredAt: now})
	// Expenses and out-of-month income are excluded.
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: "Marketing", Amount: 40, OccurredAt: now})
	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 999, OccurredAt: lastYear})

	total, err = repo.CurrentMonthIncome(ctx)
	if err != nil {
		t.Fatalf("CurrentMonthIncome() error = %v", err)
	}
	if !almostEqual(total, 200) {
		t.Errorf("CurrentMonthIncome() = %v, want 200", total)
	}
}

func TestExpenseBreakdown(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cid, err := repo.CreateCreator(ctx, core.Creator{
		Name: "Ana", FixedSalary: 500, CommissionPct: 10, Investment: 120,
	})
	if err != nil {
		t.Fatalf("CreateCreator() error = %v", err)
	}
	// Zero-commission creator: contributes salary and investment, never commission.
	if _, err := repo.CreateCreator(ctx, core.Creator{Name: "Bea", FixedSalary: 200, Investment: 30}); err != nil {
		t.Fatalf("CreateCreator() error = %v", err)
	}
	if _, err := repo.CreateEmployee(ctx, core.Employee{Name: "Max", Salary: 300}); err != nil {
		t.Fatalf("CreateEmployee() error = %v", err)
	}

	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 1000, CreatorID: int64Ptr(cid)})
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: core.CategoryWithdrawalCommission, Amount: 20})
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: "Marketing", Amount: 80})
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: "Virtual Server", Amount: 15})
	// Excluded from the other-expenses bucket by construction.
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: core.CategorySalary, Amount: 500})
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: core.CategoryCreatorInvestment, Amount: 70})
	// Income rows never land in expense buckets regardless of category.
	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "Marketing", Amount: 33})

	b, err := repo.ExpenseBreakdown(ctx)
	if err != nil {
		t.Fatalf("ExpenseBreakdown() error = %v", err)
	}

	if !almostEqual(b.Salaries, 1000) { // 500 + 200 creators, 300 employee
		t.Errorf("Salaries = %v, want 1000", b.Salaries)
	}
	if !almostEqual(b.CreatorCommission, 100) { // 1000 * 10%
		t.Errorf("CreatorCommission = %v, want 100", b.CreatorCommission)
	}
	if !almostEqual(b.WithdrawalCommission, 20) {
		t.Errorf("WithdrawalCommission = %v, want 20", b.WithdrawalCommission)
	}
	if !almostEqual(b.Investments, 150) { // 120 + 30
		t.Errorf("Investments = %v, want 150", b.Investments)
	}
	if !almostEqual(b.OtherExpenses, 95) { // 80 + 15
		t.Errorf("OtherExpenses = %v, want 95", b.OtherExpenses)
	}
	if !almostEqual(b.Total(), 1365) {
		t.Errorf("Total() = %v, want 1365", b.Total())
	}
}

func TestExpenseBreakdownEmptyStore(t *testing.T) {
	repo := newTestRepo(t)

	b, err := repo.ExpenseBreakdown(context.Background())
	if err != nil {
		t.Fatalf("ExpenseBreakdown() error = %v", err)
	}
	if b.Total() != 0 {
		t.Errorf("ExpenseBreakdown() on empty store = %+v, want all zeros", b)
	}
}

func TestTopCreatorsByRevenue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, _ := repo.CreateCreator(ctx, core.Creator{Name: "Ana"})
	b, _ := repo.CreateCreator(ctx, core.Creator{Name: "Bea"})
	c, _ := repo.CreateCreator(ctx, core.Creator{Name: "Cloe"})

	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 100, CreatorID: int64Ptr(a)})
	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 400, CreatorID: int64Ptr(b)})
	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 250, CreatorID: int64Ptr(b)})
	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 300, CreatorID: int64Ptr(c)})
	// Expenses do not count as revenue.
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: "Marketing", Amount: 9999})

	top, err := repo.TopCreatorsByRevenue(ctx, 2)
	if err != nil {
		t.Fatalf("TopCreatorsByRevenue() error = %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("TopCreatorsByRevenue() len = %d, want 2", len(top))
	}
	if top[0].Name != "Bea" || !almostEqual(top[0].Revenue, 650) {
		t.Errorf("top[0] = %+v, want Bea 650", top[0])
	}
	if top[1].Name != "Cloe" || !almostEqual(top[1].Revenue, 300) {
		t.Errorf("top[1] = %+v, want Cloe 300", top[1])
	}
}

func TestTopCreatorsByProfit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// profit = 1000 - 100 - 1000*10/100 - 50 = 750
	a, _ := repo.CreateCreator(ctx, core.Creator{Name: "Ana", FixedSalary: 100, CommissionPct: 10, Investment: 50})
	// profit = 200 - 500 = -300, filtered out
	b, _ := repo.CreateCreator(ctx, core.Creator{Name: "Bea", FixedSalary: 500})
	// No income at all: profit = -20, filtered out
	if _, err := repo.CreateCreator(ctx, core.Creator{Name: "Cloe", Investment: 20}); err != nil {
		t.Fatalf("CreateCreator() error = %v", err)
	}

	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 1000, CreatorID: int64Ptr(a)})
	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 200, CreatorID: int64Ptr(b)})

	top, err := repo.TopCreatorsByProfit(ctx, 5)
	if err != nil {
		t.Fatalf("TopCreatorsByProfit() error = %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("TopCreatorsByProfit() len = %d, want 1 (non-positive profits excluded)", len(top))
	}
	if top[0].Name != "Ana" || !almostEqual(top[0].Profit, 750) {
		t.Errorf("top[0] = %+v, want Ana 750", top[0])
	}
}

func TestExpenseByCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: "Marketing", Amount: 100})
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: "Marketing", Amount: 50})
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: "Virtual Server", Amount: 80})
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: "Other", Amount: 10})
	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "Marketing", Amount: 999})

	got, err := repo.ExpenseByCategory(ctx, 2)
	if err != nil {
		t.Fatalf("ExpenseByCategory() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ExpenseByCategory() len = %d, want 2 (limit applied)", len(got))
	}
	if got[0].Category != "Marketing" || !almostEqual(got[0].Total, 150) {
		t.Errorf("got[0] = %+v, want Marketing 150", got[0])
	}
	if got[1].Category != "Virtual Server" || !almostEqual(got[1].Total, 80) {
		t.Errorf("got[1] = %+v, want Virtual Server 80", got[1])
	}
}

func TestMonthlyTrend(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	at := func(s string) time.Time {
		ts, err := time.ParseInLocation(core.TimestampLayout, s, time.Local)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return ts
	}

	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 100, OccurredAt: at("2025-01-10 08:00:00")})
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: "Marketing", Amount: 40, OccurredAt: at("2025-01-20 08:00:00")})
	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 300, OccurredAt: at("2025-03-01 08:00:00")})

	trend, err := repo.MonthlyTrend(ctx, "", "")
	if err != nil {
		t.Fatalf("MonthlyTrend() error = %v", err)
	}
	if len(trend) != 2 {
		t.Fatalf("MonthlyTrend() len = %d, want 2", len(trend))
	}
	if trend[0].Month != "2025-01" || !almostEqual(trend[0].Income, 100) || !almostEqual(trend[0].Expense, 40) {
		t.Errorf("trend[0] = %+v", trend[0])
	}
	if trend[1].Month != "2025-03" || !almostEqual(trend[1].Income, 300) || !almostEqual(trend[1].Expense, 0) {
		t.Errorf("trend[1] = %+v", trend[1])
	}

	jan, err := repo.MonthlyTrend(ctx, "2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("MonthlyTrend(range) error = %v", err)
	}
	if len(jan) != 1 || jan[0].Month != "2025-01" {
		t.Errorf("MonthlyTrend(january) = %+v", jan)
	}

	empty, err := repo.MonthlyTrend(ctx, "2030-01-01", "2030-12-31")
	if err != nil {
		t.Fatalf("MonthlyTrend(no matches) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("MonthlyTrend(no matches) = %+v, want empty series", empty)
	}
}

func TestMonths(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	at := func(s string) time.Time {
		ts, _ := time.ParseInLocation(core.TimestampLayout, s, time.Local)
		return ts
	}

	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 1, OccurredAt: at("2025-01-10 08:00:00")})
	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 1, OccurredAt: at("2025-01-15 08:00:00")})
	mustCreate(t, repo, core.Transaction{Type: core.Expense, Category: "Other", Amount: 1, OccurredAt: at("2025-03-05 08:00:00")})

	months, err := repo.Months(ctx)
	if err != nil {
		t.Fatalf("Months() error = %v", err)
	}
	want := []string{"2025-03", "2025-01"}
	if len(months) != len(want) {
		t.Fatalf("Months() = %v, want %v", months, want)
	}
	for i := range want {
		if months[i] != want[i] {
			t.Errorf("Months()[%d] = %q, want %q", i, months[i], want[i])
		}
	}
}

func TestPartnerExpenseTotals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p1, _ := repo.CreatePartner(ctx, core.Partner{Name: "P1"})
	p2, _ := repo.CreatePartner(ctx, core.Partner{Name: "P2"})
	// Partner with nothing attributed: excluded from the result.
	if _, err := repo.CreatePartner(ctx, core.Partner{Name: "P3"}); err != nil {
		t.Fatalf("CreatePartner() error = %v", err)
	}

	c1, _ := repo.CreateCreator(ctx, core.Creator{
		Name: "C1", FixedSalary: 500, CommissionPct: 10, PartnerID: int64Ptr(p1),
	})
	repo.CreateEmployee(ctx, core.Employee{Name: "E1", Salary: 250, PartnerID: int64Ptr(p2)})

	mustCreate(t, repo, core.Transaction{Type: core.Income, Category: "General Income", Amount: 1000, CreatorID: int64Ptr(c1)})

	totals, err := repo.PartnerExpenseTotals(ctx)
	if err != nil {
		t.Fatalf("PartnerExpenseTotals() error = %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("PartnerExpenseTotals() len = %d, want 2 (zero-total partner excluded)", len(totals))
	}
	// P1: 500 fixed salary + 1000*10/100 commission = 600, ranked first.
	if totals[0].Name != "P1" || !almostEqual(totals[0].Total, 600) {
		t.Errorf("totals[0] = %+v, want P1 600", totals[0])
	}
	if totals[1].Name != "P2" || !almostEqual(totals[1].Total, 250) {
		t.Errorf("totals[1] = %+v, want P2 250", totals[1])
	}
}
