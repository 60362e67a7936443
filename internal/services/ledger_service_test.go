package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"moneta/internal/core"
	"moneta/internal/engine"
	"moneta/internal/numeric"
	"moneta/internal/stores"
	"moneta/internal/stores/memory"
)

func newTestEngine() *engine.Engine {
	return engine.New(numeric.NewBackend(numeric.Config{}, slog.Default()))
}

func TestLedgerService_CreateTransaction(t *testing.T) {
	ctx := context.Background()
	store := memory.New(0, nil)
	svc := NewLedgerService(store, nil)

	created, err := svc.CreateTransaction(ctx, core.Transaction{
		Date:        core.NewDate(2026, 3, 12),
		Description: "Groceries",
		CategoryID:  "food",
		AmountCents: -4520,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated ID")
	}

	listed, err := svc.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("unexpected transactions: %+v", listed)
	}
}

func TestLedgerService_CreateTransactionInvalid(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New(0, nil), nil)

	tests := []struct {
		name    string
		tx      core.Transaction
		wantErr error
	}{
		{
			name: "zero amount",
			tx: core.Transaction{
				Date:        core.NewDate(2026, 3, 12),
				Description: "Nothing",
				CategoryID:  "misc",
				AmountCents: 0,
			},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name: "blank description",
			tx: core.Transaction{
				Date:        core.NewDate(2026, 3, 12),
				Description: "   ",
				CategoryID:  "misc",
				AmountCents: -100,
			},
			wantErr: core.ErrEmptyDescription,
		},
		{
			name: "missing category",
			tx: core.Transaction{
				Date:        core.NewDate(2026, 3, 12),
				Description: "Coffee",
				AmountCents: -100,
			},
			wantErr: core.ErrEmptyCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateTransaction(ctx, tt.tx); !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateTransaction error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLedgerService_BillLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New(0, nil), nil)

	bill, err := svc.CreateBill(ctx, core.RecurringBill{
		Name:       "Rent",
		Amount:     core.Money{Cents: 135000},
		Category:   "housing",
		BaseDueDay: 1,
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	if err := svc.SetBillPaid(ctx, bill.ID, true); err != nil {
		t.Fatalf("SetBillPaid: %v", err)
	}
	if err := svc.SetBillAnchor(ctx, bill.ID, "2026-02", 3); err != nil {
		t.Fatalf("SetBillAnchor: %v", err)
	}

	bills, err := svc.ListBills(ctx)
	if err != nil {
		t.Fatalf("ListBills: %v", err)
	}
	if len(bills) != 1 || !bills[0].IsPaid || bills[0].DueDay("2026-02") != 3 {
		t.Fatalf("unexpected bill state: %+v", bills)
	}

	if err := svc.DeleteBill(ctx, bill.ID); err != nil {
		t.Fatalf("DeleteBill: %v", err)
	}
	if err := svc.DeleteBill(ctx, bill.ID); !errors.Is(err, stores.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerService_BudgetDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New(0, nil), nil)

	if _, err := svc.CreateBudget(ctx, core.Budget{
		CategoryID:   "food",
		MonthlyLimit: core.Money{Cents: 30000},
	}); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if _, err := svc.CreateBudget(ctx, core.Budget{
		CategoryID:   "food",
		MonthlyLimit: core.Money{Cents: 40000},
	}); !errors.Is(err, stores.ErrDuplicateBudget) {
		t.Fatalf("expected ErrDuplicateBudget, got %v", err)
	}
}
