package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"agency/internal/services"
	"agency/internal/storage"
)

type expenseBreakdownView struct {
	Salaries             float64 `json:"salaries"`
	CreatorCommission    float64 `json:"creator_commission"`
	WithdrawalCommission float64 `json:"withdrawal_commission"`
	Investments          float64 `json:"investments"`
	OtherExpenses        float64 `json:"other_expenses"`
	Total                float64 `json:"total"`
}

type creatorRevenueView struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

type creatorProfitView struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Profit float64 `json:"profit"`
}

type categoryTotalView struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type monthTotalsView struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

type partnerTotalView struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

type dashboardView struct {
	CurrentMonthIncome   float64              `json:"current_month_income"`
	ExpenseBreakdown     expenseBreakdownView `json:"expense_breakdown"`
	TopCreatorsByRevenue []creatorRevenueView `json:"top_creators_by_revenue"`
	TopCreatorsByProfit  []creatorProfitView  `json:"top_creators_by_profit"`
	ExpenseByCategory    []categoryTotalView  `json:"expense_by_category"`
	MonthlyTrend         []monthTotalsView    `json:"monthly_trend"`
	PartnerExpenseTotals []partnerTotalView   `json:"partner_expense_totals"`
}

func toMonthTotalsViews(rows []storage.MonthTotals) []monthTotalsView {
	out := make([]monthTotalsView, 0, len(rows))
	for _, m := range rows {
		out = append(out, monthTotalsView{Month: m.Month, Income: m.Income, Expense: m.Expense})
	}
	return out
}

// handleDashboard assembles every aggregate the dashboard shows in a
// single response.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	income, err := s.repo.CurrentMonthIncome(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}
	breakdown, err := s.repo.ExpenseBreakdown(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}
	byRevenue, err := s.repo.TopCreatorsByRevenue(ctx, limitParam(r, 5))
	if err != nil {
		respondError(w, r, err)
		return
	}
	byProfit, err := s.repo.TopCreatorsByProfit(ctx, limitParam(r, 5))
	if err != nil {
		respondError(w, r, err)
		return
	}
	byCategory, err := s.repo.ExpenseByCategory(ctx, 10)
	if err != nil {
		respondError(w, r, err)
		return
	}
	trend, err := s.repo.MonthlyTrend(ctx, "", "")
	if err != nil {
		respondError(w, r, err)
		return
	}
	partnerTotals, err := s.repo.PartnerExpenseTotals(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}

	view := dashboardView{
		CurrentMonthIncome: income,
		ExpenseBreakdown: expenseBreakdownView{
			Salaries:             breakdown.Salaries,
			CreatorCommission:    breakdown.CreatorCommission,
			WithdrawalCommission: breakdown.WithdrawalCommission,
			Investments:          breakdown.Investments,
			OtherExpenses:        breakdown.OtherExpenses,
			Total:                breakdown.Total(),
		},
		TopCreatorsByRevenue: make([]creatorRevenueView, 0, len(byRevenue)),
		TopCreatorsByProfit:  make([]creatorProfitView, 0, len(byProfit)),
		ExpenseByCategory:    make([]categoryTotalView, 0, len(byCategory)),
		MonthlyTrend:         toMonthTotalsViews(trend),
		PartnerExpenseTotals: make([]partnerTotalView, 0, len(partnerTotals)),
	}
	for _, c := range byRevenue {
		view.TopCreatorsByRevenue = append(view.TopCreatorsByRevenue, creatorRevenueView{ID: c.ID, Name: c.Name, Revenue: c.Revenue})
	}
	for _, c := range byProfit {
		view.TopCreatorsByProfit = append(view.TopCreatorsByProfit, creatorProfitView{ID: c.ID, Name: c.Name, Profit: c.Profit})
	}
	for _, c := range byCategory {
		view.ExpenseByCategory = append(view.ExpenseByCategory, categoryTotalView{Category: c.Category, Total: c.Total})
	}
	for _, p := range partnerTotals {
		view.PartnerExpenseTotals = append(view.PartnerExpenseTotals, partnerTotalView{ID: p.ID, Name: p.Name, Total: p.Total})
	}

	respondJSON(w, http.StatusOK, view)
}

func limitParam(r *http.Request, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (s *Server) handleReportMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.reportSvc.Months(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if months == nil {
		months = []string{}
	}
	respondJSON(w, http.StatusOK, months)
}

// buildReport resolves the month or start/end query parameters into report
// rows. A month parameter wins over an explicit range.
func (s *Server) buildReport(r *http.Request) ([]services.ReportRow, error) {
	q := r.URL.Query()
	month := strings.TrimSpace(q.Get("month"))
	start := strings.TrimSpace(q.Get("start"))
	end := strings.TrimSpace(q.Get("end"))

	ctx := r.Context()
	switch {
	case month != "":
		return s.reportSvc.BuildMonth(ctx, month)
	case start != "" || end != "":
		return s.reportSvc.BuildRange(ctx, start, end)
	default:
		return s.reportSvc.BuildAll(ctx)
	}
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.buildReport(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if rows == nil {
		rows = []services.ReportRow{}
	}
	respondJSON(w, http.StatusOK, rows)
}

func (s *Server) handleMonthlyReportExport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.buildReport(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="monthly_report.csv"`)
	// Headers are already out; a mid-stream failure can only be logged.
	if err := services.WriteCSV(w, rows); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}
