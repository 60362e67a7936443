package services

import (
	"context"
	"fmt"

	"moneta/internal/core"
	"moneta/internal/engine"
	"moneta/internal/stores"
)

// TimelineResult is one month's projection, ready for rendering.
type TimelineResult struct {
	Month        core.MonthKey
	OpeningCents int64
	ClosingCents int64
	Entries      []core.TimelineEntry
	Totals       core.TimelineTotals
}

// ProjectionService builds month timelines from stored records.
type ProjectionService struct {
	store  stores.Store
	engine *engine.Engine
}

func NewProjectionService(store stores.Store, eng *engine.Engine) *ProjectionService {
	return &ProjectionService{
		store:  store,
		engine: eng,
	}
}

func (s *ProjectionService) Timeline(ctx context.Context, mk core.MonthKey) (TimelineResult, error) {
	bills, err := s.store.ListBills(ctx)
	if err != nil {
		return TimelineResult{}, fmt.Errorf("list bills: %w", err)
	}
	paychecks, err := s.store.ListPaychecks(ctx)
	if err != nil {
		return TimelineResult{}, fmt.Errorf("list paychecks: %w", err)
	}
	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return TimelineResult{}, fmt.Errorf("list transactions: %w", err)
	}
	opening, err := s.store.OpeningBalance(ctx)
	if err != nil {
		return TimelineResult{}, fmt.Errorf("opening balance: %w", err)
	}

	entries, totals, err := s.engine.BuildTimeline(ctx, bills, paychecks, transactions, mk, opening)
	if err != nil {
		return TimelineResult{}, fmt.Errorf("build timeline: %w", err)
	}

	closing := opening
	if len(entries) > 0 {
		closing = entries[len(entries)-1].BalanceAfter
	}

	return TimelineResult{
		Month:        mk,
		OpeningCents: opening,
		ClosingCents: closing,
		Entries:      entries,
		Totals:       totals,
	}, nil
}
