package services

import (
	"context"
	"testing"
	"time"

	"moneta/internal/core"
	"moneta/internal/stores/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func seedSummaryStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New(0, nil)

	seed := []core.Transaction{
		{ID: "tx-1", Date: core.NewDate(2026, 3, 5), Description: "Groceries", CategoryID: "food", AmountCents: -12000},
		{ID: "tx-2", Date: core.NewDate(2026, 3, 9), Description: "Fuel", CategoryID: "transport", AmountCents: -8000},
		{ID: "tx-3", Date: core.NewDate(2026, 3, 20), Description: "Refund", CategoryID: "misc", AmountCents: 5000},
		{ID: "tx-4", Date: core.NewDate(2026, 2, 27), Description: "February dinner", CategoryID: "food", AmountCents: -9000},
	}
	for _, tx := range seed {
		if err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction %s: %v", tx.ID, err)
		}
	}
	return store
}

func TestSummaryService_AggregateCurrentMonth(t *testing.T) {
	ctx := context.Background()
	store := seedSummaryStore(t)
	clock := fixedClock{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
	svc := NewSummaryService(store, newTestEngine(), clock)

	agg, err := svc.Aggregate(ctx, core.WindowCurrentMonth)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if agg.TotalSpentCents != 20000 {
		t.Errorf("TotalSpentCents = %d, want 20000", agg.TotalSpentCents)
	}
	if agg.TotalIncomeCents != 5000 {
		t.Errorf("TotalIncomeCents = %d, want 5000", agg.TotalIncomeCents)
	}
	if agg.NetBalanceCents != -15000 {
		t.Errorf("NetBalanceCents = %d, want -15000", agg.NetBalanceCents)
	}
	if agg.CategorySpendCents["food"] != 12000 {
		t.Errorf("food spend = %d, want 12000", agg.CategorySpendCents["food"])
	}
	if _, ok := agg.CategorySpendCents["misc"]; ok {
		t.Error("income-only category must not appear in spend map")
	}
}

func TestSummaryService_AggregateAllTime(t *testing.T) {
	ctx := context.Background()
	store := seedSummaryStore(t)
	svc := NewSummaryService(store, newTestEngine(), fixedClock{now: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)})

	agg, err := svc.Aggregate(ctx, core.WindowAllTime)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if agg.TotalSpentCents != 29000 {
		t.Errorf("TotalSpentCents = %d, want 29000", agg.TotalSpentCents)
	}
	if agg.CategorySpendCents["food"] != 21000 {
		t.Errorf("food spend = %d, want 21000", agg.CategorySpendCents["food"])
	}
}

func TestSummaryService_AggregateInvalidWindow(t *testing.T) {
	svc := NewSummaryService(memory.New(0, nil), newTestEngine(), nil)

	if _, err := svc.Aggregate(context.Background(), core.Window("lastYear")); err == nil {
		t.Fatal("expected error for unknown window")
	}
}

func TestSummaryService_BudgetStatus(t *testing.T) {
	ctx := context.Background()
	store := seedSummaryStore(t)
	clock := fixedClock{now: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)}
	svc := NewSummaryService(store, newTestEngine(), clock)

	budgets := []core.Budget{
		{ID: "bud-1", CategoryID: "food", MonthlyLimit: core.Money{Cents: 10000}},
		{ID: "bud-2", CategoryID: "transport", MonthlyLimit: core.Money{Cents: 20000}},
	}
	for _, b := range budgets {
		if err := store.CreateBudget(ctx, b); err != nil {
			t.Fatalf("CreateBudget: %v", err)
		}
	}

	status, err := svc.BudgetStatus(ctx)
	if err != nil {
		t.Fatalf("BudgetStatus: %v", err)
	}
	if len(status.Budgets) != 2 {
		t.Fatalf("got %d budget metrics, want 2", len(status.Budgets))
	}

	byCategory := map[string]core.BudgetMetrics{}
	for _, m := range status.Budgets {
		byCategory[m.CategoryID] = m
	}

	food := byCategory["food"]
	if !food.IsOver || food.RemainingCents != -2000 {
		t.Errorf("food metrics = %+v, want over with remaining -2000", food)
	}
	transport := byCategory["transport"]
	if transport.IsOver || transport.RemainingCents != 12000 {
		t.Errorf("transport metrics = %+v, want under with remaining 12000", transport)
	}

	if status.Summary.TotalLimitCents != 30000 {
		t.Errorf("TotalLimitCents = %d, want 30000", status.Summary.TotalLimitCents)
	}
	if status.Summary.TotalSpentCents != 20000 {
		t.Errorf("TotalSpentCents = %d, want 20000", status.Summary.TotalSpentCents)
	}
}
