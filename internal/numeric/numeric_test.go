package numeric

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"testing"
)

func randomBuffers(r *rand.Rand, n int) (amounts, flags []int64) {
	amounts = make([]int64, n)
	flags = make([]int64, n)
	for i := range amounts {
		amounts[i] = int64(r.Intn(500000)) // magnitudes up to 5000.00
		flags[i] = int64(r.Intn(2))
	}
	return amounts, flags
}

// Reference and accelerated strategies must agree bit for bit on any valid
// input.
func TestStrategiesAgreeOnSumByType(t *testing.T) {
	ctx := context.Background()
	ref := NewReference()
	accel := NewAccelerated(4)
	r := rand.New(rand.NewSource(1))

	for _, n := range []int{0, 1, 2, 3, 7, 64, 1000, 4097} {
		amounts, flags := randomBuffers(r, n)
		for _, filter := range []int64{FlagExpense, FlagIncome} {
			want, err := ref.SumByType(ctx, amounts, flags, filter)
			if err != nil {
				t.Fatalf("n=%d reference: %v", n, err)
			}
			got, err := accel.SumByType(ctx, amounts, flags, filter)
			if err != nil {
				t.Fatalf("n=%d accelerated: %v", n, err)
			}
			if got != want {
				t.Fatalf("n=%d filter=%d: accelerated %d != reference %d", n, filter, got, want)
			}
		}
	}
}

func TestStrategiesAgreeOnRunningBalances(t *testing.T) {
	ctx := context.Background()
	ref := NewReference()
	accel := NewAccelerated(3)
	r := rand.New(rand.NewSource(2))

	for _, n := range []int{0, 1, 5, 100, 2048} {
		amounts, flags := randomBuffers(r, n)
		start := int64(r.Intn(1000000)) - 500000

		want, err := ref.RunningBalances(ctx, amounts, flags, start)
		if err != nil {
			t.Fatalf("n=%d reference: %v", n, err)
		}
		got, err := accel.RunningBalances(ctx, amounts, flags, start)
		if err != nil {
			t.Fatalf("n=%d accelerated: %v", n, err)
		}
		if len(got) != len(want) {
			t.Fatalf("n=%d: length %d != %d", n, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("n=%d index %d: accelerated %+v != reference %+v", n, i, got[i], want[i])
			}
		}
	}
}

func TestStrategiesAgreeOnSumByCategory(t *testing.T) {
	ctx := context.Background()
	ref := NewReference()
	accel := NewAccelerated(4)
	r := rand.New(rand.NewSource(3))

	for _, n := range []int{0, 1, 10, 777} {
		timestamps := make([]int64, n)
		amounts := make([]int64, n)
		categories := make([]int64, n)
		for i := 0; i < n; i++ {
			timestamps[i] = int64(r.Intn(10000))
			amounts[i] = int64(r.Intn(100000))
			categories[i] = int64(r.Intn(5))
		}
		for cat := int64(0); cat < 5; cat++ {
			want, err := ref.SumByCategory(ctx, cat, 2500, 7500, timestamps, amounts, categories)
			if err != nil {
				t.Fatalf("n=%d reference: %v", n, err)
			}
			got, err := accel.SumByCategory(ctx, cat, 2500, 7500, timestamps, amounts, categories)
			if err != nil {
				t.Fatalf("n=%d accelerated: %v", n, err)
			}
			if got != want {
				t.Fatalf("n=%d cat=%d: accelerated %d != reference %d", n, cat, got, want)
			}
		}
	}
}

func TestRunningBalanceRoundTrip(t *testing.T) {
	ctx := context.Background()
	ref := NewReference()
	r := rand.New(rand.NewSource(4))
	amounts, flags := randomBuffers(r, 200)
	start := int64(123456)

	balances, err := ref.RunningBalances(ctx, amounts, flags, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var signedSum int64
	for i, amount := range amounts {
		signedSum += signedEffect(amount, flags[i])
	}
	final := balances[len(balances)-1].AfterCents
	if final-start != signedSum {
		t.Fatalf("final-start = %d, sum of signed effects = %d", final-start, signedSum)
	}
	if balances[0].BeforeCents != start {
		t.Fatalf("first BeforeCents = %d, want %d", balances[0].BeforeCents, start)
	}
}

func TestLengthMismatchFailsFast(t *testing.T) {
	ctx := context.Background()
	for _, s := range []Strategy{NewReference(), NewAccelerated(2)} {
		if _, err := s.SumByType(ctx, []int64{1, 2}, []int64{1}, FlagIncome); !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("%s SumByType: got %v, want ErrLengthMismatch", s.Name(), err)
		}
		if _, err := s.RunningBalances(ctx, []int64{1}, []int64{1, 0}, 0); !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("%s RunningBalances: got %v, want ErrLengthMismatch", s.Name(), err)
		}
		if _, err := s.SumByCategory(ctx, 0, 0, 1, []int64{1}, []int64{1, 2}, []int64{0}); !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("%s SumByCategory: got %v, want ErrLengthMismatch", s.Name(), err)
		}
	}
}

// failingStrategy always errors, to exercise the backend's fallback path.
type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }

func (failingStrategy) SumByType(context.Context, []int64, []int64, int64) (int64, error) {
	return 0, ErrUnavailable
}

func (failingStrategy) RunningBalances(context.Context, []int64, []int64, int64) ([]BalancePair, error) {
	return nil, ErrUnavailable
}

func (failingStrategy) SumByCategory(context.Context, int64, int64, int64, []int64, []int64, []int64) (int64, error) {
	return 0, ErrUnavailable
}

func TestBackendFallsBackToReference(t *testing.T) {
	ctx := context.Background()
	b := &Backend{
		accel:     failingStrategy{},
		ref:       NewReference(),
		threshold: 1,
		logger:    slog.Default(),
	}

	amounts := []int64{100, 250, 40}
	flags := []int64{FlagIncome, FlagExpense, FlagIncome}

	total, err := b.SumByType(ctx, amounts, flags, FlagIncome)
	if err != nil {
		t.Fatalf("fallback should swallow the accelerated failure: %v", err)
	}
	if total != 140 {
		t.Fatalf("got %d, want 140", total)
	}

	balances, err := b.RunningBalances(ctx, amounts, flags, 1000)
	if err != nil {
		t.Fatalf("fallback should swallow the accelerated failure: %v", err)
	}
	want := []BalancePair{{1000, 1100}, {1100, 850}, {850, 890}}
	for i := range want {
		if balances[i] != want[i] {
			t.Fatalf("index %d: got %+v, want %+v", i, balances[i], want[i])
		}
	}
}

func TestBackendSelectsReferenceBelowThreshold(t *testing.T) {
	ctx := context.Background()
	// Accelerated slot deliberately poisoned: if selection itself is wrong the
	// call errors instead of silently passing through the fallback.
	b := &Backend{
		accel:     failingStrategy{},
		ref:       NewReference(),
		threshold: 100,
		logger:    slog.Default(),
	}
	total, err := b.SumByType(ctx, []int64{5, 7}, []int64{FlagIncome, FlagIncome}, FlagIncome)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 12 {
		t.Fatalf("got %d, want 12", total)
	}
}

func TestBackendRejectsMismatchedInput(t *testing.T) {
	b := NewBackend(Config{}, slog.Default())
	if _, err := b.SumByType(context.Background(), []int64{1}, []int64{1, 0}, FlagIncome); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("got %v, want ErrLengthMismatch", err)
	}
}
