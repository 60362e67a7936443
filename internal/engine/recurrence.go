// Package engine implements the cash-flow projection and aggregation core:
// recurrence expansion, the monthly timeline with running balances, window
// aggregation, and budget evaluation. Everything here is a pure function
// over immutable snapshots; heavy reductions run through internal/numeric.
package engine

// Occurrences expands a recurring item into its calendar days within one
// month: anchorDay, anchorDay+intervalDays, ... while the value stays within
// monthLength. A monthly interval (31) exceeds every month length, so it
// yields exactly one occurrence. An anchor past the end of the month yields
// none; days are never clamped or wrapped.
func Occurrences(anchorDay, intervalDays, monthLength int) []int {
	if anchorDay < 1 || intervalDays < 1 {
		return nil
	}
	var days []int
	for day := anchorDay; day <= monthLength; day += intervalDays {
		days = append(days, day)
	}
	return days
}
