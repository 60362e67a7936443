// Package numeric provides the integer reduction primitives behind the
// timeline and aggregation views. Every operation exists in two
// interchangeable execution strategies, a sequential reference and an
// accelerated parallel one, which must return bit-identical cent values for
// any valid input.
package numeric

import (
	"context"
	"errors"
	"fmt"
)

// Type flags in packed buffers. Expenses subtract, income adds.
const (
	FlagExpense int64 = 0
	FlagIncome  int64 = 1
)

var (
	ErrLengthMismatch = errors.New("parallel buffers must have equal length")
	ErrUnavailable    = errors.New("accelerated strategy unavailable")
)

// BalancePair is the balance around one entry in chronological order.
type BalancePair struct {
	BeforeCents int64
	AfterCents  int64
}

// Strategy is one execution strategy over packed int64 buffers. Amount
// buffers carry unsigned magnitudes; type flag buffers carry FlagExpense or
// FlagIncome at matching indexes.
//
// RunningBalances requires its input pre-sorted chronologically by the
// caller (date ascending, stable ties by insertion index); no strategy
// sorts.
type Strategy interface {
	Name() string

	// SumByType sums the magnitudes at indexes whose flag equals filter.
	SumByType(ctx context.Context, amounts, typeFlags []int64, filter int64) (int64, error)

	// RunningBalances applies each entry's signed effect in order, starting
	// from startBalanceCents, and reports the balance around every entry.
	RunningBalances(ctx context.Context, amounts, typeFlags []int64, startBalanceCents int64) ([]BalancePair, error)

	// SumByCategory sums amounts whose category matches categoryIndex and
	// whose timestamp lies in [startTs, endTs], both inclusive.
	SumByCategory(ctx context.Context, categoryIndex, startTs, endTs int64, timestamps, amounts, categories []int64) (int64, error)
}

// checkLengths fails fast on mismatched parallel buffers; the engine never
// truncates or zero-pads.
func checkLengths(lengths ...int) error {
	for i := 1; i < len(lengths); i++ {
		if lengths[i] != lengths[0] {
			return fmt.Errorf("%w: got %v", ErrLengthMismatch, lengths)
		}
	}
	return nil
}

// signedEffect converts a magnitude and flag into the balance delta.
func signedEffect(amount, flag int64) int64 {
	if flag == FlagIncome {
		return amount
	}
	return -amount
}
