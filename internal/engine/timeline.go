package engine

import (
	"context"
	"fmt"
	"sort"

	"moneta/internal/core"
	"moneta/internal/numeric"
)

// Engine computes derived cash-flow views. It holds no state beyond the
// numeric backend, so one instance serves concurrent requests.
type Engine struct {
	nb *numeric.Backend
}

func New(nb *numeric.Backend) *Engine {
	return &Engine{nb: nb}
}

// BuildTimeline merges bill due dates, expanded paycheck occurrences, and
// the month's one-off transactions into one chronological sequence with a
// running balance starting at openingCents.
//
// Ordering: entries are appended bills first (in base-due-day order), then
// paychecks (list order, occurrence order), then transactions (list order),
// and sorted stably by day, so same-day ties keep exactly that precedence.
// Output is fully recomputed per call; inputs are never mutated.
func (e *Engine) BuildTimeline(
	ctx context.Context,
	bills []core.RecurringBill,
	paychecks []core.RecurringPaycheck,
	transactions []core.Transaction,
	mk core.MonthKey,
	openingCents int64,
) ([]core.TimelineEntry, core.TimelineTotals, error) {
	monthLength := mk.Days()
	if monthLength == 0 {
		return nil, core.TimelineTotals{}, fmt.Errorf("invalid month key %q", mk)
	}

	sortedBills := make([]core.RecurringBill, len(bills))
	copy(sortedBills, bills)
	sort.SliceStable(sortedBills, func(i, j int) bool {
		return sortedBills[i].BaseDueDay < sortedBills[j].BaseDueDay
	})

	entries := make([]core.TimelineEntry, 0, len(sortedBills)+len(paychecks)+len(transactions))

	// Bills are due once per month by construction; the anchor only moves
	// the day.
	for _, bill := range sortedBills {
		entries = append(entries, core.TimelineEntry{
			Kind:         core.KindBill,
			Day:          bill.DueDay(mk),
			Name:         bill.Name,
			AmountCents:  bill.Amount.Cents,
			SignedEffect: -bill.Amount.Cents,
			IsPaid:       bill.IsPaid,
		})
	}

	for _, paycheck := range paychecks {
		anchor, ok := paycheck.Anchors.Day(mk)
		if !ok {
			// No anchor for this month means no occurrences, not an error.
			continue
		}
		for _, day := range Occurrences(anchor, paycheck.Frequency.IntervalDays(), monthLength) {
			entries = append(entries, core.TimelineEntry{
				Kind:         core.KindPaycheck,
				Day:          day,
				Name:         paycheck.Source,
				AmountCents:  paycheck.Amount.Cents,
				SignedEffect: paycheck.Amount.Cents,
			})
		}
	}

	for _, tx := range transactions {
		if tx.Date.MonthKey() != mk {
			continue
		}
		entries = append(entries, core.TimelineEntry{
			Kind:         core.KindTransaction,
			Day:          tx.Date.Day(),
			Name:         tx.Description,
			AmountCents:  tx.Magnitude(),
			SignedEffect: tx.AmountCents,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Day < entries[j].Day
	})

	amounts := make([]int64, len(entries))
	flags := make([]int64, len(entries))
	for i, entry := range entries {
		amounts[i] = entry.AmountCents
		if entry.SignedEffect >= 0 {
			flags[i] = numeric.FlagIncome
		} else {
			flags[i] = numeric.FlagExpense
		}
	}

	balances, err := e.nb.RunningBalances(ctx, amounts, flags, openingCents)
	if err != nil {
		return nil, core.TimelineTotals{}, fmt.Errorf("running balances: %w", err)
	}
	for i := range entries {
		entries[i].BalanceBefore = balances[i].BeforeCents
		entries[i].BalanceAfter = balances[i].AfterCents
	}

	totals, err := e.timelineTotals(ctx, entries)
	if err != nil {
		return nil, core.TimelineTotals{}, err
	}
	return entries, totals, nil
}

// timelineTotals reduces the recurring entries only: projected income is the
// sum of paycheck occurrences, projected bills the sum of bill entries.
// One-off transactions belong to the aggregation views, not these totals.
func (e *Engine) timelineTotals(ctx context.Context, entries []core.TimelineEntry) (core.TimelineTotals, error) {
	var amounts, flags []int64
	for _, entry := range entries {
		switch entry.Kind {
		case core.KindBill:
			amounts = append(amounts, entry.AmountCents)
			flags = append(flags, numeric.FlagExpense)
		case core.KindPaycheck:
			amounts = append(amounts, entry.AmountCents)
			flags = append(flags, numeric.FlagIncome)
		}
	}

	income, err := e.nb.SumByType(ctx, amounts, flags, numeric.FlagIncome)
	if err != nil {
		return core.TimelineTotals{}, fmt.Errorf("sum paycheck occurrences: %w", err)
	}
	bills, err := e.nb.SumByType(ctx, amounts, flags, numeric.FlagExpense)
	if err != nil {
		return core.TimelineTotals{}, fmt.Errorf("sum bills: %w", err)
	}
	return core.TimelineTotals{IncomeCents: income, BillsCents: bills}, nil
}
