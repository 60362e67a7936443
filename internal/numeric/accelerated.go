package numeric

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Accelerated is the parallel strategy: inputs are split into contiguous
// chunks reduced concurrently, then combined. Integer addition is
// associative, so chunked sums match the sequential reference bit for bit.
//
// Initialization (sizing the worker fan-out) happens once on first use.
type Accelerated struct {
	workers  int
	initOnce sync.Once
	initErr  error
}

// NewAccelerated creates the parallel strategy. workers <= 0 sizes the
// fan-out from GOMAXPROCS at first use.
func NewAccelerated(workers int) *Accelerated {
	return &Accelerated{workers: workers}
}

func (*Accelerated) Name() string { return "accelerated" }

func (a *Accelerated) init() error {
	a.initOnce.Do(func() {
		if a.workers <= 0 {
			a.workers = runtime.GOMAXPROCS(0)
		}
		if a.workers < 1 {
			a.initErr = ErrUnavailable
		}
	})
	return a.initErr
}

// chunkBounds splits n elements into at most a.workers contiguous ranges.
func (a *Accelerated) chunkBounds(n int) [][2]int {
	workers := a.workers
	if workers > n {
		workers = n
	}
	bounds := make([][2]int, 0, workers)
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		bounds = append(bounds, [2]int{start, end})
	}
	return bounds
}

func (a *Accelerated) SumByType(ctx context.Context, amounts, typeFlags []int64, filter int64) (int64, error) {
	if err := checkLengths(len(amounts), len(typeFlags)); err != nil {
		return 0, err
	}
	if err := a.init(); err != nil {
		return 0, err
	}
	if len(amounts) == 0 {
		return 0, nil
	}

	bounds := a.chunkBounds(len(amounts))
	partials := make([]int64, len(bounds))

	g, ctx := errgroup.WithContext(ctx)
	for ci, b := range bounds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var sum int64
			for i := b[0]; i < b[1]; i++ {
				if typeFlags[i] == filter {
					sum += amounts[i]
				}
			}
			partials[ci] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, p := range partials {
		total += p
	}
	return total, nil
}

// RunningBalances runs a two-pass parallel prefix: each chunk's signed sum is
// computed concurrently, chunk offsets are accumulated sequentially, then the
// per-entry pairs are filled in concurrently from those offsets.
func (a *Accelerated) RunningBalances(ctx context.Context, amounts, typeFlags []int64, startBalanceCents int64) ([]BalancePair, error) {
	if err := checkLengths(len(amounts), len(typeFlags)); err != nil {
		return nil, err
	}
	if err := a.init(); err != nil {
		return nil, err
	}
	if len(amounts) == 0 {
		return []BalancePair{}, nil
	}

	bounds := a.chunkBounds(len(amounts))
	chunkSums := make([]int64, len(bounds))

	g, gctx := errgroup.WithContext(ctx)
	for ci, b := range bounds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var sum int64
			for i := b[0]; i < b[1]; i++ {
				sum += signedEffect(amounts[i], typeFlags[i])
			}
			chunkSums[ci] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	offsets := make([]int64, len(bounds))
	running := startBalanceCents
	for ci, sum := range chunkSums {
		offsets[ci] = running
		running += sum
	}

	balances := make([]BalancePair, len(amounts))
	g, gctx = errgroup.WithContext(ctx)
	for ci, b := range bounds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bal := offsets[ci]
			for i := b[0]; i < b[1]; i++ {
				after := bal + signedEffect(amounts[i], typeFlags[i])
				balances[i] = BalancePair{BeforeCents: bal, AfterCents: after}
				bal = after
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return balances, nil
}

func (a *Accelerated) SumByCategory(ctx context.Context, categoryIndex, startTs, endTs int64, timestamps, amounts, categories []int64) (int64, error) {
	if err := checkLengths(len(timestamps), len(amounts), len(categories)); err != nil {
		return 0, err
	}
	if err := a.init(); err != nil {
		return 0, err
	}
	if len(timestamps) == 0 {
		return 0, nil
	}

	bounds := a.chunkBounds(len(timestamps))
	partials := make([]int64, len(bounds))

	g, gctx := errgroup.WithContext(ctx)
	for ci, b := range bounds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var sum int64
			for i := b[0]; i < b[1]; i++ {
				if categories[i] != categoryIndex {
					continue
				}
				if timestamps[i] < startTs || timestamps[i] > endTs {
					continue
				}
				sum += amounts[i]
			}
			partials[ci] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, p := range partials {
		total += p
	}
	return total, nil
}
