package core

// Derived, recomputed-on-demand views. Nothing here is persisted; every
// value is rebuilt from source records on each query.

// EntryKind identifies what produced a timeline entry.
type EntryKind string

const (
	KindBill        EntryKind = "bill"
	KindPaycheck    EntryKind = "paycheck"
	KindTransaction EntryKind = "transaction"
)

// TimelineEntry is one dated event in a month's projected cash flow.
// AmountCents is the unsigned magnitude; SignedEffect carries the direction.
type TimelineEntry struct {
	Kind          EntryKind
	Day           int
	Name          string
	AmountCents   int64
	SignedEffect  int64
	BalanceBefore int64
	BalanceAfter  int64
	IsPaid        bool
}

// TimelineTotals are pure reductions over a month's generated entries,
// independent of the running-balance pass.
type TimelineTotals struct {
	IncomeCents int64
	BillsCents  int64
}

// Window selects the time range aggregation runs over.
type Window string

const (
	WindowCurrentMonth Window = "currentMonth"
	WindowAllTime      Window = "allTime"
)

func (w Window) Valid() bool {
	return w == WindowCurrentMonth || w == WindowAllTime
}

// CategorySpend is one category's spend total, in accumulation order.
type CategorySpend struct {
	CategoryID string
	Cents      int64
}

// AggregateResult summarizes a transaction set over a window. TotalSpentCents
// is reported positive. CategorySpendCents omits zero-spend categories;
// ByCategory preserves first-encountered accumulation order so ties stay
// deterministic.
type AggregateResult struct {
	TotalSpentCents    int64
	TotalIncomeCents   int64
	NetBalanceCents    int64
	CategorySpendCents map[string]int64
	ByCategory         []CategorySpend
}

// TopCategory returns the category with the highest spend, ties broken by
// first-encountered order. ok is false when nothing was spent.
func (r AggregateResult) TopCategory() (CategorySpend, bool) {
	var top CategorySpend
	ok := false
	for _, cs := range r.ByCategory {
		if !ok || cs.Cents > top.Cents {
			top = cs
			ok = true
		}
	}
	return top, ok
}

// BudgetMetrics is the evaluation of one budget against realized spend.
type BudgetMetrics struct {
	BudgetID       string
	CategoryID     string
	LimitCents     int64
	SpentCents     int64
	RemainingCents int64
	PercentUsed    float64
	IsOver         bool
}

// BudgetSummary is the elementwise roll-up across all budgets.
type BudgetSummary struct {
	TotalLimitCents     int64
	TotalSpentCents     int64
	TotalRemainingCents int64
	UsagePercent        float64
}
