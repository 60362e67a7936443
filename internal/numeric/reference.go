package numeric

import "context"

// Reference is the sequential strategy: one straightforward pass per
// operation. It is always available and is the correctness baseline the
// accelerated strategy is held to.
type Reference struct{}

func NewReference() *Reference { return &Reference{} }

func (*Reference) Name() string { return "reference" }

func (*Reference) SumByType(_ context.Context, amounts, typeFlags []int64, filter int64) (int64, error) {
	if err := checkLengths(len(amounts), len(typeFlags)); err != nil {
		return 0, err
	}
	var total int64
	for i, amount := range amounts {
		if typeFlags[i] == filter {
			total += amount
		}
	}
	return total, nil
}

func (*Reference) RunningBalances(_ context.Context, amounts, typeFlags []int64, startBalanceCents int64) ([]BalancePair, error) {
	if err := checkLengths(len(amounts), len(typeFlags)); err != nil {
		return nil, err
	}
	balances := make([]BalancePair, len(amounts))
	running := startBalanceCents
	for i, amount := range amounts {
		after := running + signedEffect(amount, typeFlags[i])
		balances[i] = BalancePair{BeforeCents: running, AfterCents: after}
		running = after
	}
	return balances, nil
}

func (*Reference) SumByCategory(_ context.Context, categoryIndex, startTs, endTs int64, timestamps, amounts, categories []int64) (int64, error) {
	if err := checkLengths(len(timestamps), len(amounts), len(categories)); err != nil {
		return 0, err
	}
	var total int64
	for i, ts := range timestamps {
		if categories[i] != categoryIndex {
			continue
		}
		if ts < startTs || ts > endTs {
			continue
		}
		total += amounts[i]
	}
	return total, nil
}
