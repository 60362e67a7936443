package engine

import "moneta/internal/core"

// Evaluate computes one budget's metrics against realized spend. Remaining
// may go negative. A non-positive limit yields percentUsed 0 rather than an
// error or infinity; isOver still compares strictly, so any positive spend
// against a zero limit is over.
func Evaluate(budget core.Budget, spentCents int64) core.BudgetMetrics {
	limit := budget.MonthlyLimit.Cents
	var percent float64
	if limit > 0 {
		percent = float64(spentCents) / float64(limit) * 100
	}
	return core.BudgetMetrics{
		BudgetID:       budget.ID,
		CategoryID:     budget.CategoryID,
		LimitCents:     limit,
		SpentCents:     spentCents,
		RemainingCents: limit - spentCents,
		PercentUsed:    percent,
		IsOver:         spentCents > limit,
	}
}

// EvaluateBudgets joins every budget with its category's spend from an
// aggregation result. Categories absent from the result spent nothing.
func EvaluateBudgets(budgets []core.Budget, agg core.AggregateResult) []core.BudgetMetrics {
	metrics := make([]core.BudgetMetrics, len(budgets))
	for i, budget := range budgets {
		metrics[i] = Evaluate(budget, agg.CategorySpendCents[budget.CategoryID])
	}
	return metrics
}

// Summarize rolls budget metrics up elementwise. The usage percentage
// follows the same zero-limit guard as Evaluate.
func Summarize(metrics []core.BudgetMetrics) core.BudgetSummary {
	var summary core.BudgetSummary
	for _, m := range metrics {
		summary.TotalLimitCents += m.LimitCents
		summary.TotalSpentCents += m.SpentCents
		summary.TotalRemainingCents += m.RemainingCents
	}
	if summary.TotalLimitCents > 0 {
		summary.UsagePercent = float64(summary.TotalSpentCents) / float64(summary.TotalLimitCents) * 100
	}
	return summary
}
