package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"moneta/internal/core"
	"moneta/internal/stores"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "moneta.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	tx := core.Transaction{
		ID:          "tx-1",
		Date:        core.NewDate(2026, 3, 12),
		Description: "Groceries",
		CategoryID:  "food",
		AmountCents: -4520,
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	got, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d transactions, want 1", len(got))
	}
	if got[0].ID != tx.ID || got[0].AmountCents != tx.AmountCents {
		t.Fatalf("round trip mismatch: %+v", got[0])
	}
	if got[0].Date.MonthKey() != "2026-03" {
		t.Fatalf("month key = %s, want 2026-03", got[0].Date.MonthKey())
	}

	if err := repo.DeleteTransaction(ctx, "tx-1"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "tx-1"); !errors.Is(err, stores.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBillAnchorsPersist(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	bill := core.RecurringBill{
		ID:         "b-1",
		Name:       "Rent",
		Amount:     core.Money{Cents: 135000},
		Category:   "housing",
		BaseDueDay: 1,
		Anchors:    core.AnchorMap{"2026-02": 3},
	}
	if err := repo.CreateBill(ctx, bill); err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if err := repo.SetBillAnchor(ctx, "b-1", "2026-03", 5); err != nil {
		t.Fatalf("SetBillAnchor: %v", err)
	}
	if err := repo.SetBillAnchor(ctx, "b-1", "2026-02", 30); !errors.Is(err, core.ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay for day 30 in February, got %v", err)
	}

	bills, err := repo.ListBills(ctx)
	if err != nil {
		t.Fatalf("ListBills: %v", err)
	}
	if len(bills) != 1 {
		t.Fatalf("got %d bills, want 1", len(bills))
	}
	if day := bills[0].DueDay("2026-02"); day != 3 {
		t.Fatalf("February due day = %d, want 3", day)
	}
	if day := bills[0].DueDay("2026-03"); day != 5 {
		t.Fatalf("March due day = %d, want 5", day)
	}
	if day := bills[0].DueDay("2026-04"); day != 1 {
		t.Fatalf("fallback due day = %d, want base 1", day)
	}

	if err := repo.DeleteBill(ctx, "b-1"); err != nil {
		t.Fatalf("DeleteBill: %v", err)
	}
	anchors, err := repo.loadAnchors(ctx, "b-1")
	if err != nil {
		t.Fatalf("loadAnchors: %v", err)
	}
	if len(anchors) != 0 {
		t.Fatalf("anchors survived bill deletion: %v", anchors)
	}
}

func TestPaycheckRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p := core.RecurringPaycheck{
		ID:        "p-1",
		Source:    "Employer",
		Amount:    core.Money{Cents: 320000},
		Frequency: core.Biweekly,
		Anchors:   core.AnchorMap{"2026-03": 6},
	}
	if err := repo.CreatePaycheck(ctx, p); err != nil {
		t.Fatalf("CreatePaycheck: %v", err)
	}

	got, err := repo.ListPaychecks(ctx)
	if err != nil {
		t.Fatalf("ListPaychecks: %v", err)
	}
	if len(got) != 1 || got[0].Frequency != core.Biweekly {
		t.Fatalf("unexpected paychecks: %+v", got)
	}
	if day, ok := got[0].Anchors.Day("2026-03"); !ok || day != 6 {
		t.Fatalf("anchor = %d ok=%v, want 6 true", day, ok)
	}
}

func TestBudgetUniqueCategory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	b := core.Budget{ID: "bud-1", CategoryID: "food", MonthlyLimit: core.Money{Cents: 30000}}
	if err := repo.CreateBudget(ctx, b); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	dup := core.Budget{ID: "bud-2", CategoryID: "food", MonthlyLimit: core.Money{Cents: 10000}}
	if err := repo.CreateBudget(ctx, dup); !errors.Is(err, stores.ErrDuplicateBudget) {
		t.Fatalf("expected ErrDuplicateBudget, got %v", err)
	}
}

func TestOpeningBalance(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	opening, err := repo.OpeningBalance(ctx)
	if err != nil {
		t.Fatalf("OpeningBalance: %v", err)
	}
	if opening != 0 {
		t.Fatalf("fresh opening balance = %d, want 0", opening)
	}

	if err := repo.SetOpeningBalance(ctx, 123456); err != nil {
		t.Fatalf("SetOpeningBalance: %v", err)
	}
	opening, err = repo.OpeningBalance(ctx)
	if err != nil {
		t.Fatalf("OpeningBalance: %v", err)
	}
	if opening != 123456 {
		t.Fatalf("opening balance = %d, want 123456", opening)
	}
}

func TestRevisionBumps(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	before := repo.Revision()
	if err := repo.UpsertCategory(ctx, core.Category{ID: "food", Name: "Food"}); err != nil {
		t.Fatalf("UpsertCategory: %v", err)
	}
	if repo.Revision() != before+1 {
		t.Fatalf("revision = %d, want %d", repo.Revision(), before+1)
	}

	if _, err := repo.ListCategories(ctx); err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if repo.Revision() != before+1 {
		t.Fatal("read must not bump revision")
	}
}

func TestPendingSyncFlow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	tx := core.Transaction{
		ID:          "tx-1",
		Date:        core.NewDate(2026, 3, 1),
		Description: "Coffee",
		CategoryID:  "food",
		AmountCents: -450,
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncTransactions: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "tx-1" {
		t.Fatalf("unexpected pending set: %+v", pending)
	}

	if err := repo.MarkSynced(ctx, "tx-1"); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	pending, err = repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncTransactions: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty pending set, got %+v", pending)
	}
}

var _ stores.Store = (*SQLiteRepository)(nil)
