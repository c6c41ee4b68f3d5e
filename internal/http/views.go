package http

import (
	"agency/internal/core"
	"agency/internal/storage"
)

// Response shapes. Amounts in requests arrive as decimal strings so both
// dot and comma separators are accepted; responses carry plain numbers.

type partnerView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

type partnerOverviewView struct {
	partnerView
	CreatorCount  int64 `json:"creator_count"`
	EmployeeCount int64 `json:"employee_count"`
}

func toPartnerView(p core.Partner) partnerView {
	return partnerView{ID: p.ID, Name: p.Name, Notes: p.Notes}
}

func toPartnerOverviewViews(rows []storage.PartnerOverview) []partnerOverviewView {
	out := make([]partnerOverviewView, 0, len(rows))
	for _, p := range rows {
		out = append(out, partnerOverviewView{
			partnerView:   toPartnerView(p.Partner),
			CreatorCount:  p.CreatorCount,
			EmployeeCount: p.EmployeeCount,
		})
	}
	return out
}

type creatorView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	FixedSalary   float64 `json:"fixed_salary"`
	CommissionPct float64 `json:"commission_pct"`
	Notes         string  `json:"notes"`
	Investment    float64 `json:"investment"`
	PartnerID     *int64  `json:"partner_id"`
}

type creatorOverviewView struct {
	creatorView
	PartnerName string  `json:"partner_name"`
	TotalIncome float64 `json:"total_income"`
}

func toCreatorView(c core.Creator) creatorView {
	return creatorView{
		ID:            c.ID,
		Name:          c.Name,
		FixedSalary:   c.FixedSalary,
		CommissionPct: c.CommissionPct,
		Notes:         c.Notes,
		Investment:    c.Investment,
		PartnerID:     c.PartnerID,
	}
}

func toCreatorOverviewViews(rows []storage.CreatorOverview) []creatorOverviewView {
	out := make([]creatorOverviewView, 0, len(rows))
	for _, c := range rows {
		out = append(out, creatorOverviewView{
			creatorView: toCreatorView(c.Creator),
			PartnerName: c.PartnerName,
			TotalIncome: c.TotalIncome,
		})
	}
	return out
}

type employeeView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	Salary        float64 `json:"salary"`
	Sales         float64 `json:"sales"`
	CommissionPct float64 `json:"commission_pct"`
	Notes         string  `json:"notes"`
	PartnerID     *int64  `json:"partner_id"`
}

type employeeOverviewView struct {
	employeeView
	PartnerName string `json:"partner_name"`
}

func toEmployeeView(e core.Employee) employeeView {
	return employeeView{
		ID:            e.ID,
		Name:          e.Name,
		Role:          e.Role,
		Salary:        e.Salary,
		Sales:         e.Sales,
		CommissionPct: e.CommissionPct,
		Notes:         e.Notes,
		PartnerID:     e.PartnerID,
	}
}

func toEmployeeOverviewViews(rows []storage.EmployeeOverview) []employeeOverviewView {
	out := make([]employeeOverviewView, 0, len(rows))
	for _, e := range rows {
		out = append(out, employeeOverviewView{
			employeeView: toEmployeeView(e.Employee),
			PartnerName:  e.PartnerName,
		})
	}
	return out
}

type categoryView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type transactionView struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	OccurredAt  string  `json:"occurred_at"`
	CreatorID   *int64  `json:"creator_id"`
}

type transactionRowView struct {
	transactionView
	CreatorName string `json:"creator_name"`
}

func toTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		Type:        string(t.Type),
		Category:    t.Category,
		Amount:      t.Amount,
		Description: t.Description,
		OccurredAt:  t.OccurredAt.Format(core.TimestampLayout),
		CreatorID:   t.CreatorID,
	}
}

func toTransactionRowViews(rows []storage.TransactionRow) []transactionRowView {
	out := make([]transactionRowView, 0, len(rows))
	for _, t := range rows {
		out = append(out, transactionRowView{
			transactionView: toTransactionView(t.Transaction),
			CreatorName:     t.CreatorName,
		})
	}
	return out
}

type idResponse struct {
	ID int64 `json:"id"`
}
