package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"moneta/internal/core"
	"moneta/internal/numeric"
)

// Aggregate summarizes a transaction set over a window. The currentMonth
// window spans the first through last calendar day of the month now falls
// in, both inclusive; allTime includes everything. Categories with zero
// spend are absent from the result map.
func (e *Engine) Aggregate(ctx context.Context, transactions []core.Transaction, window core.Window, now time.Time) (core.AggregateResult, error) {
	if !window.Valid() {
		return core.AggregateResult{}, fmt.Errorf("invalid window %q", window)
	}

	startTs, endTs := int64(math.MinInt64), int64(math.MaxInt64)
	if window == core.WindowCurrentMonth {
		mk := core.MonthKeyOf(now)
		startTs = mk.Start().Unix()
		endTs = mk.End().Unix()
	}

	inWindow := make([]core.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		ts := tx.Date.Unix()
		if ts < startTs || ts > endTs {
			continue
		}
		inWindow = append(inWindow, tx)
	}

	amounts := make([]int64, len(inWindow))
	flags := make([]int64, len(inWindow))
	timestamps := make([]int64, len(inWindow))
	catIndexes := make([]int64, len(inWindow))

	// Category indexes are assigned in first-encounter order among expenses
	// so top-category ties resolve deterministically. Income rows get -1 and
	// never match a category sum.
	indexByCategory := make(map[string]int64)
	order := make([]string, 0)
	for i, tx := range inWindow {
		amounts[i] = tx.Magnitude()
		timestamps[i] = tx.Date.Unix()
		if tx.IsExpense() {
			flags[i] = numeric.FlagExpense
			idx, ok := indexByCategory[tx.CategoryID]
			if !ok {
				idx = int64(len(order))
				indexByCategory[tx.CategoryID] = idx
				order = append(order, tx.CategoryID)
			}
			catIndexes[i] = idx
		} else {
			flags[i] = numeric.FlagIncome
			catIndexes[i] = -1
		}
	}

	spent, err := e.nb.SumByType(ctx, amounts, flags, numeric.FlagExpense)
	if err != nil {
		return core.AggregateResult{}, fmt.Errorf("sum spent: %w", err)
	}
	income, err := e.nb.SumByType(ctx, amounts, flags, numeric.FlagIncome)
	if err != nil {
		return core.AggregateResult{}, fmt.Errorf("sum income: %w", err)
	}

	result := core.AggregateResult{
		TotalSpentCents:    spent,
		TotalIncomeCents:   income,
		NetBalanceCents:    income - spent,
		CategorySpendCents: make(map[string]int64, len(order)),
		ByCategory:         make([]core.CategorySpend, 0, len(order)),
	}

	for idx, categoryID := range order {
		cents, err := e.nb.SumByCategory(ctx, int64(idx), startTs, endTs, timestamps, amounts, catIndexes)
		if err != nil {
			return core.AggregateResult{}, fmt.Errorf("sum category %s: %w", categoryID, err)
		}
		result.CategorySpendCents[categoryID] = cents
		result.ByCategory = append(result.ByCategory, core.CategorySpend{CategoryID: categoryID, Cents: cents})
	}

	return result, nil
}
