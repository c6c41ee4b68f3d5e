package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"agency/internal/core"
	"agency/internal/storage"
)

// ReportRow is one month of the profit and loss report.
type ReportRow struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Profit  float64 `json:"profit"`
	Gain    bool    `json:"gain"`
}

// ReportService builds monthly profit reports from the transaction trend.
type ReportService struct {
	repo *storage.Repository
}

func NewReportService(repo *storage.Repository) *ReportService {
	return &ReportService{repo: repo}
}

// BuildAll reports every month with transaction data, oldest first.
func (s *ReportService) BuildAll(ctx context.Context) ([]ReportRow, error) {
	return s.build(ctx, "", "")
}

// BuildMonth reports a single YYYY-MM month.
func (s *ReportService) BuildMonth(ctx context.Context, month string) ([]ReportRow, error) {
	start, end, err := core.MonthBounds(month)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, start, end)
}

// BuildRange reports the months touched by the inclusive date range. Either
// bound may be empty.
func (s *ReportService) BuildRange(ctx context.Context, start, end string) ([]ReportRow, error) {
	var startDate, endDate bool
	var from, to int64
	if start != "" {
		t, err := core.ParseDate(start)
		if err != nil {
			return nil, err
		}
		from, startDate = t.Unix(), true
	}
	if end != "" {
		t, err := core.ParseDate(end)
		if err != nil {
			return nil, err
		}
		to, endDate = t.Unix(), true
	}
	if startDate && endDate && from > to {
		return nil, core.ErrInvalidDate
	}
	return s.build(ctx, start, end)
}

// Months lists the distinct months with data, newest first.
func (s *ReportService) Months(ctx context.Context) ([]string, error) {
	return s.repo.Months(ctx)
}

func (s *ReportService) build(ctx context.Context, start, end string) ([]ReportRow, error) {
	trend, err := s.repo.MonthlyTrend(ctx, start, end)
	if err != nil {
		return nil, err
	}

	rows := make([]ReportRow, 0, len(trend))
	for _, m := range trend {
		profit := m.Income - m.Expense
		rows = append(rows, ReportRow{
			Month:   m.Month,
			Income:  m.Income,
			Expense: m.Expense,
			Profit:  profit,
			Gain:    profit >= 0,
		})
	}
	return rows, nil
}

// WriteCSV renders the report as CSV with dollar-formatted amounts.
func WriteCSV(w io.Writer, rows []ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Month", "Income", "Expenses", "Profit"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Month,
			core.FormatUSD(r.Income),
			core.FormatUSD(r.Expense),
			core.FormatUSD(r.Profit),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
