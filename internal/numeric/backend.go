package numeric

import (
	"context"
	"errors"
	"log/slog"
)

// DefaultThreshold is the input size at which the accelerated strategy
// starts paying for its fan-out.
const DefaultThreshold = 256

// Config controls strategy selection.
type Config struct {
	// Threshold is the minimum element count for the accelerated strategy.
	// Zero means DefaultThreshold; negative disables acceleration entirely.
	Threshold int
	// Workers sizes the accelerated fan-out; zero derives it from GOMAXPROCS.
	Workers int
}

// Backend selects an execution strategy per call: accelerated for inputs at
// or above the threshold, reference otherwise. An accelerated failure falls
// back to the reference strategy once, with a diagnostic log entry; it is
// never surfaced to callers. Invalid input (mismatched buffer lengths) fails
// fast on either path.
type Backend struct {
	accel     Strategy
	ref       Strategy
	threshold int
	logger    *slog.Logger
}

// NewBackend wires both strategies behind one adapter.
func NewBackend(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	var accel Strategy
	if threshold > 0 {
		accel = NewAccelerated(cfg.Workers)
	}
	return &Backend{
		accel:     accel,
		ref:       NewReference(),
		threshold: threshold,
		logger:    logger,
	}
}

func (b *Backend) useAccelerated(n int) bool {
	return b.accel != nil && n >= b.threshold
}

func (b *Backend) logFallback(ctx context.Context, op string, err error) {
	b.logger.WarnContext(ctx, "Accelerated strategy failed, falling back to reference",
		"operation", op,
		"error", err)
}

func (b *Backend) SumByType(ctx context.Context, amounts, typeFlags []int64, filter int64) (int64, error) {
	if err := checkLengths(len(amounts), len(typeFlags)); err != nil {
		return 0, err
	}
	if b.useAccelerated(len(amounts)) {
		total, err := b.accel.SumByType(ctx, amounts, typeFlags, filter)
		if err == nil {
			return total, nil
		}
		if ctxDone(err) {
			return 0, err
		}
		b.logFallback(ctx, "sum_by_type", err)
	}
	return b.ref.SumByType(ctx, amounts, typeFlags, filter)
}

func (b *Backend) RunningBalances(ctx context.Context, amounts, typeFlags []int64, startBalanceCents int64) ([]BalancePair, error) {
	if err := checkLengths(len(amounts), len(typeFlags)); err != nil {
		return nil, err
	}
	if b.useAccelerated(len(amounts)) {
		balances, err := b.accel.RunningBalances(ctx, amounts, typeFlags, startBalanceCents)
		if err == nil {
			return balances, nil
		}
		if ctxDone(err) {
			return nil, err
		}
		b.logFallback(ctx, "running_balances", err)
	}
	return b.ref.RunningBalances(ctx, amounts, typeFlags, startBalanceCents)
}

func (b *Backend) SumByCategory(ctx context.Context, categoryIndex, startTs, endTs int64, timestamps, amounts, categories []int64) (int64, error) {
	if err := checkLengths(len(timestamps), len(amounts), len(categories)); err != nil {
		return 0, err
	}
	if b.useAccelerated(len(timestamps)) {
		total, err := b.accel.SumByCategory(ctx, categoryIndex, startTs, endTs, timestamps, amounts, categories)
		if err == nil {
			return total, nil
		}
		if ctxDone(err) {
			return 0, err
		}
		b.logFallback(ctx, "sum_by_category", err)
	}
	return b.ref.SumByCategory(ctx, categoryIndex, startTs, endTs, timestamps, amounts, categories)
}

// ctxDone reports whether the failure came from the caller's context, in
// which case retrying on the reference strategy would be pointless.
func ctxDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
