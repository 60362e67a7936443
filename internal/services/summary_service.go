package services

import (
	"context"
	"fmt"

	"moneta/internal/core"
	"moneta/internal/engine"
	"moneta/internal/stores"
)

// BudgetStatus pairs evaluated budgets with their roll-up.
type BudgetStatus struct {
	Budgets []core.BudgetMetrics
	Summary core.BudgetSummary
}

// SummaryService computes aggregates and budget evaluations over stored
// transactions. The clock decides what "current month" means.
type SummaryService struct {
	store  stores.Store
	engine *engine.Engine
	clock  stores.Clock
}

func NewSummaryService(store stores.Store, eng *engine.Engine, clock stores.Clock) *SummaryService {
	if clock == nil {
		clock = stores.SystemClock{}
	}
	return &SummaryService{
		store:  store,
		engine: eng,
		clock:  clock,
	}
}

func (s *SummaryService) Aggregate(ctx context.Context, window core.Window) (core.AggregateResult, error) {
	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return core.AggregateResult{}, fmt.Errorf("list transactions: %w", err)
	}
	return s.engine.Aggregate(ctx, transactions, window, s.clock.Now())
}

// BudgetStatus evaluates every budget against the current month's spend.
func (s *SummaryService) BudgetStatus(ctx context.Context) (BudgetStatus, error) {
	agg, err := s.Aggregate(ctx, core.WindowCurrentMonth)
	if err != nil {
		return BudgetStatus{}, err
	}

	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return BudgetStatus{}, fmt.Errorf("list budgets: %w", err)
	}

	metrics := engine.EvaluateBudgets(budgets, agg)
	return BudgetStatus{
		Budgets: metrics,
		Summary: engine.Summarize(metrics),
	}, nil
}
