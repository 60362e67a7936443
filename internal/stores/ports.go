// Package stores defines the ports the engine's collaborators implement.
// The engine itself only ever reads snapshots through these interfaces and
// never owns record lifecycles.
package stores

import (
	"context"
	"errors"
	"time"

	"moneta/internal/core"
)

var (
	// ErrNotFound is returned when a record ID does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateBudget is returned when a category already has a budget.
	ErrDuplicateBudget = errors.New("category already has a budget")
)

type (
	// TransactionStore owns one-off ledger entries. Transactions are
	// immutable once created except for deletion.
	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// RecurringStore owns bills and paychecks, including their per-month
	// anchor maps.
	RecurringStore interface {
		CreateBill(ctx context.Context, bill core.RecurringBill) error
		DeleteBill(ctx context.Context, id string) error
		ListBills(ctx context.Context) ([]core.RecurringBill, error)
		SetBillPaid(ctx context.Context, id string, paid bool) error
		SetBillAnchor(ctx context.Context, id string, mk core.MonthKey, day int) error

		CreatePaycheck(ctx context.Context, paycheck core.RecurringPaycheck) error
		DeletePaycheck(ctx context.Context, id string) error
		ListPaychecks(ctx context.Context) ([]core.RecurringPaycheck, error)
		SetPaycheckAnchor(ctx context.Context, id string, mk core.MonthKey, day int) error
	}

	// BudgetStore owns category budgets. One budget per category is
	// enforced here at creation time, not by the engine.
	BudgetStore interface {
		CreateBudget(ctx context.Context, budget core.Budget) error
		DeleteBudget(ctx context.Context, id string) error
		ListBudgets(ctx context.Context) ([]core.Budget, error)
	}

	// CategoryReader maps category IDs to display names.
	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// BalanceReader supplies the externally known opening balance that
	// projections start from.
	BalanceReader interface {
		OpeningBalance(ctx context.Context) (int64, error)
	}

	// Revisioned exposes a process-local counter bumped on every mutation.
	// Derived-view caches key on it so no cached result can outlive the
	// records it was computed from.
	Revisioned interface {
		Revision() uint64
	}

	// Store is the full backend surface the service layer wires up.
	Store interface {
		TransactionStore
		RecurringStore
		BudgetStore
		CategoryReader
		BalanceReader
		Revisioned
	}

	// Clock is the current-date source for "current month" windows.
	Clock interface {
		Now() time.Time
	}

	// SystemClock is the production Clock.
	SystemClock struct{}
)

func (SystemClock) Now() time.Time { return time.Now().UTC() }
