package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"agency/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func int64Ptr(v int64) *int64 { return &v }

func TestMigrationsAreRerunnable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 3; i++ {
		if err := RunMigrations(dbPath); err != nil {
			t.Fatalf("RunMigrations() run %d error = %v", i+1, err)
		}
	}

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	defer repo.Close()

	n, err := repo.CategoryCount(context.Background())
	if err != nil {
		t.Fatalf("CategoryCount() error = %v", err)
	}
	if n != 8 {
		t.Errorf("seeded category count = %d, want 8", n)
	}
}

func TestPartnerCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreatePartner(ctx, core.Partner{Name: "P1", Notes: "first"})
	if err != nil {
		t.Fatalf("CreatePartner() error = %v", err)
	}

	if _, err := repo.CreatePartner(ctx, core.Partner{Name: "P1"}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("CreatePartner(duplicate) error = %v, want ErrDuplicateName", err)
	}

	got, err := repo.GetPartner(ctx, id)
	if err != nil {
		t.Fatalf("GetPartner() error = %v", err)
	}
	if got.Name != "P1" || got.Notes != "first" {
		t.Errorf("GetPartner() = %+v", got)
	}

	if err := repo.UpdatePartner(ctx, core.Partner{ID: id, Name: "P1", Notes: "updated"}); err != nil {
		t.Fatalf("UpdatePartner() error = %v", err)
	}
	if err := repo.UpdatePartner(ctx, core.Partner{ID: 9999, Name: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePartner(missing) error = %v, want ErrNotFound", err)
	}

	if err := repo.DeletePartner(ctx, id); err != nil {
		t.Fatalf("DeletePartner() error = %v", err)
	}
	if err := repo.DeletePartner(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeletePartner(again) error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetPartner(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPartner(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestDeletePartnerDetachesReferences(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pid, err := repo.CreatePartner(ctx, core.Partner{Name: "P1"})
	if err != nil {
		t.Fatalf("CreatePartner() error = %v", err)
	}
	cid, err := repo.CreateCreator(ctx, core.Creator{Name: "Ana", PartnerID: int64Ptr(pid)})
	if err != nil {
		t.Fatalf("CreateCreator() error = %v", err)
	}
	eid, err := repo.CreateEmployee(ctx, core.Employee{Name: "Max", PartnerID: int64Ptr(pid)})
	if err != nil {
		t.Fatalf("CreateEmployee() error = %v", err)
	}

	if err := repo.DeletePartner(ctx, pid); err != nil {
		t.Fatalf("DeletePartner() error = %v", err)
	}

	c, err := repo.GetCreator(ctx, cid)
	if err != nil {
		t.Fatalf("GetCreator() error = %v", err)
	}
	if c.PartnerID != nil {
		t.Errorf("creator partner reference = %v, want nil after partner delete", *c.PartnerID)
	}

	e, err := repo.GetEmployee(ctx, eid)
	if err != nil {
		t.Fatalf("GetEmployee() error = %v", err)
	}
	if e.PartnerID != nil {
		t.Errorf("employee partner reference = %v, want nil after partner delete", *e.PartnerID)
	}
}

func TestCreatorCRUDAndOverview(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pid, _ := repo.CreatePartner(ctx, core.Partner{Name: "P1"})
	id, err := repo.CreateCreator(ctx, core.Creator{
		Name:          "Ana",
		FixedSalary:   500,
		CommissionPct: 10,
		Investment:    50,
		PartnerID:     int64Ptr(pid),
	})
	if err != nil {
		t.Fatalf("CreateCreator() error = %v", err)
	}
	if _, err := repo.CreateCreator(ctx, core.Creator{Name: "Bea"}); err != nil {
		t.Fatalf("CreateCreator() error = %v", err)
	}

	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Income, Category: "General Income", Amount: 300, CreatorID: int64Ptr(id),
	}, false); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Income, Category: "General Income", Amount: 200, CreatorID: int64Ptr(id),
	}, false); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	list, err := repo.ListCreators(ctx)
	if err != nil {
		t.Fatalf("ListCreators() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListCreators() len = %d, want 2", len(list))
	}
	// Ordered by name: Ana, Bea
	if list[0].Name != "Ana" || list[1].Name != "Bea" {
		t.Errorf("ListCreators() order = %s, %s", list[0].Name, list[1].Name)
	}
	if list[0].TotalIncome != 500 {
		t.Errorf("Ana TotalIncome = %v, want 500", list[0].TotalIncome)
	}
	if list[0].PartnerName != "P1" {
		t.Errorf("Ana PartnerName = %q, want P1", list[0].PartnerName)
	}
	if list[1].TotalIncome != 0 {
		t.Errorf("Bea TotalIncome = %v, want 0", list[1].TotalIncome)
	}

	if err := repo.UpdateCreator(ctx, core.Creator{ID: id, Name: "Ana Maria", FixedSalary: 600}); err != nil {
		t.Fatalf("UpdateCreator() error = %v", err)
	}
	got, err := repo.GetCreator(ctx, id)
	if err != nil {
		t.Fatalf("GetCreator() error = %v", err)
	}
	if got.Name != "Ana Maria" || got.FixedSalary != 600 || got.PartnerID != nil {
		t.Errorf("GetCreator() after update = %+v", got)
	}

	if err := repo.UpdateCreator(ctx, core.Creator{ID: 9999, Name: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateCreator(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteCreatorKeepsTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _ := repo.CreateCreator(ctx, core.Creator{Name: "Ana"})
	var txIDs []int64
	for i := 0; i < 3; i++ {
		txID, err := repo.CreateTransaction(ctx, core.Transaction{
			Type: core.Income, Category: "General Income", Amount: 100, CreatorID: int64Ptr(id),
		}, false)
		if err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
		txIDs = append(txIDs, txID)
	}

	if err := repo.DeleteCreator(ctx, id); err != nil {
		t.Fatalf("DeleteCreator() error = %v", err)
	}
	if _, err := repo.GetCreator(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetCreator(deleted) error = %v, want ErrNotFound", err)
	}

	for _, txID := range txIDs {
		tx, err := repo.GetTransaction(ctx, txID)
		if err != nil {
			t.Fatalf("GetTransaction(%d) error = %v", txID, err)
		}
		if tx.CreatorID != nil {
			t.Errorf("transaction %d creator reference = %v, want nil", txID, *tx.CreatorID)
		}
	}
}

func TestEmployeeCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateEmployee(ctx, core.Employee{
		Name: "Max", Role: "Chatter", Salary: 300, Sales: 1000, CommissionPct: 5,
	})
	if err != nil {
		t.Fatalf("CreateEmployee() error = %v", err)
	}

	got, err := repo.GetEmployee(ctx, id)
	if err != nil {
		t.Fatalf("GetEmployee() error = %v", err)
	}
	if got.Role != "Chatter" || got.Salary != 300 || got.Sales != 1000 {
		t.Errorf("GetEmployee() = %+v", got)
	}

	if err := repo.UpdateEmployee(ctx, core.Employee{ID: id, Name: "Max", Role: "Manager", Salary: 400}); err != nil {
		t.Fatalf("UpdateEmployee() error = %v", err)
	}
	got, _ = repo.GetEmployee(ctx, id)
	if got.Role != "Manager" || got.Salary != 400 {
		t.Errorf("GetEmployee() after update = %+v", got)
	}

	if err := repo.DeleteEmployee(ctx, id); err != nil {
		t.Fatalf("DeleteEmployee() error = %v", err)
	}
	if err := repo.DeleteEmployee(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteEmployee(again) error = %v, want ErrNotFound", err)
	}
}

func TestCreateTransactionWithCommission(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Income, Category: "General Income", Amount: 100, Description: "withdrawal",
	}, true); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	rows, err := repo.ListTransactions(ctx, "", "")
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListTransactions() len = %d, want 2 (income + commission)", len(rows))
	}

	var income, commission *TransactionRow
	for i := range rows {
		switch rows[i].Type {
		case core.Income:
			income = &rows[i]
		case core.Expense:
			commission = &rows[i]
		}
	}
	if income == nil || commission == nil {
		t.Fatalf("expected one income and one expense row, got %+v", rows)
	}
	if income.Amount != 100 {
		t.Errorf("income amount = %v, want 100", income.Amount)
	}
	if commission.Amount != 2 {
		t.Errorf("commission amount = %v, want 2", commission.Amount)
	}
	if commission.Category != core.CategoryWithdrawalCommission {
		t.Errorf("commission category = %q, want %q", commission.Category, core.CategoryWithdrawalCommission)
	}
}

func TestCreateTransactionWithoutCommission(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Income, Category: "General Income", Amount: 100,
	}, false); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	rows, err := repo.ListTransactions(ctx, "", "")
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("ListTransactions() len = %d, want 1", len(rows))
	}
}

func TestCommissionFlagIgnoredForExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cid, _ := repo.CreateCreator(ctx, core.Creator{Name: "Ana"})
	id, err := repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Expense, Category: "Marketing", Amount: 50, CreatorID: int64Ptr(cid),
	}, true)
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	rows, err := repo.ListTransactions(ctx, "", "")
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("ListTransactions() len = %d, want 1 (no commission for expenses)", len(rows))
	}

	// Creator attribution is only stored for income transactions.
	tx, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if tx.CreatorID != nil {
		t.Errorf("expense creator reference = %v, want nil", *tx.CreatorID)
	}
}

func TestUpdateTransactionOnlyMutableFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _ := repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Income, Category: "General Income", Amount: 75, Description: "initial",
	}, false)

	if err := repo.UpdateTransaction(ctx, id, "Other", "edited"); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.Category != "Other" || got.Description != "edited" {
		t.Errorf("GetTransaction() after update = %+v", got)
	}
	if got.Amount != 75 || got.Type != core.Income {
		t.Errorf("immutable fields changed: %+v", got)
	}

	if err := repo.UpdateTransaction(ctx, 9999, "Other", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTransaction(missing) error = %v, want ErrNotFound", err)
	}
}

func TestListTransactionsDateFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	at := func(s string) time.Time {
		ts, err := time.ParseInLocation(core.TimestampLayout, s, time.Local)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return ts
	}

	repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Income, Category: "General Income", Amount: 10, OccurredAt: at("2025-01-15 10:00:00"),
	}, false)
	repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Expense, Category: "Marketing", Amount: 20, OccurredAt: at("2025-02-10 12:00:00"),
	}, false)
	repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Income, Category: "General Income", Amount: 30, OccurredAt: at("2025-03-05 09:00:00"),
	}, false)

	all, err := repo.ListTransactions(ctx, "", "")
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListTransactions() len = %d, want 3", len(all))
	}
	// Newest first
	if all[0].Amount != 30 || all[2].Amount != 10 {
		t.Errorf("ListTransactions() order: got amounts %v, %v, %v", all[0].Amount, all[1].Amount, all[2].Amount)
	}

	feb, err := repo.ListTransactions(ctx, "2025-02-01", "2025-02-28")
	if err != nil {
		t.Fatalf("ListTransactions(range) error = %v", err)
	}
	if len(feb) != 1 || feb[0].Amount != 20 {
		t.Errorf("ListTransactions(february) = %+v, want single 20 row", feb)
	}

	from, err := repo.ListTransactions(ctx, "2025-02-10", "")
	if err != nil {
		t.Fatalf("ListTransactions(from) error = %v", err)
	}
	if len(from) != 2 {
		t.Errorf("ListTransactions(from 2025-02-10) len = %d, want 2", len(from))
	}
}

func TestCategoryInsertIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	before, err := repo.CategoryCount(ctx)
	if err != nil {
		t.Fatalf("CategoryCount() error = %v", err)
	}

	if err := repo.CreateCategory(ctx, "Software"); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if err := repo.CreateCategory(ctx, "Software"); err != nil {
		t.Fatalf("CreateCategory(duplicate) error = %v", err)
	}
	// Seeded names are also no-ops.
	if err := repo.CreateCategory(ctx, "Marketing"); err != nil {
		t.Fatalf("CreateCategory(seeded) error = %v", err)
	}

	after, err := repo.CategoryCount(ctx)
	if err != nil {
		t.Fatalf("CategoryCount() error = %v", err)
	}
	if after != before+1 {
		t.Errorf("category count = %d, want %d", after, before+1)
	}
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id1, _ := repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Income, Category: "General Income", Amount: 10,
	}, false)
	id2, _ := repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Expense, Category: "Marketing", Amount: 20,
	}, false)

	pending, err := repo.PendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("PendingSyncTransactions() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending len = %d, want 2", len(pending))
	}

	if err := repo.MarkSynced(ctx, id1); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	if err := repo.MarkSyncError(ctx, id2); err != nil {
		t.Fatalf("MarkSyncError() error = %v", err)
	}

	// Errored rows stay eligible for retry; synced rows drop out.
	pending, err = repo.PendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("PendingSyncTransactions() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id2 {
		t.Errorf("pending after mark = %+v, want only id %d", pending, id2)
	}
}
