package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Reserved category names used by the aggregation queries and by the
// auto-generated withdrawal commission expense.
const (
	CategoryWithdrawalCommission = "Commission Withdrawal"
	CategorySalary               = "Salary"
	CategoryCreatorInvestment    = "Creator Investment"
)

// WithdrawalCommissionRate is applied to income transactions that request
// a bundled withdrawal commission expense.
const WithdrawalCommissionRate = 0.02

// EmployeeRoles is the suggested role list. Roles are stored as free text.
var EmployeeRoles = []string{"Chatter", "Manager", "Admin", "Virtual Assistant"}

type (
	TransactionType string

	Partner struct {
		ID    int64
		Name  string
		Notes string
	}

	Creator struct {
		ID            int64
		Name          string
		FixedSalary   float64
		CommissionPct float64
		Notes         string
		Investment    float64
		PartnerID     *int64
	}

	Employee struct {
		ID            int64
		Name          string
		Role          string
		Salary        float64
		Sales         float64
		CommissionPct float64
		Notes         string
		PartnerID     *int64
	}

	Transaction struct {
		ID          int64
		Type        TransactionType
		Category    string
		Amount      float64
		Description string
		OccurredAt  time.Time
		CreatorID   *int64
	}

	Category struct {
		ID   int64
		Name string
	}
)

var (
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidPercentage = errors.New("invalid percentage")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyCategory     = errors.New("empty category")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (p Partner) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Creator) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.FixedSalary < 0 || c.Investment < 0 {
		return ErrInvalidAmount
	}
	if c.CommissionPct < 0 || c.CommissionPct > 100 {
		return ErrInvalidPercentage
	}
	return nil
}

func (e Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if e.Salary < 0 || e.Sales < 0 {
		return ErrInvalidAmount
	}
	if e.CommissionPct < 0 || e.CommissionPct > 100 {
		return ErrInvalidPercentage
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
