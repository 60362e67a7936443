// Package memory provides an in-memory Store for development and tests,
// optionally seeded from CSV files in a data directory.
package memory

import (
	"bufio"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"moneta/internal/core"
	"moneta/internal/stores"
)

type Store struct {
	mu           sync.Mutex
	revision     atomic.Uint64
	opening      int64
	categories   []core.Category
	transactions []core.Transaction
	bills        []core.RecurringBill
	paychecks    []core.RecurringPaycheck
	budgets      []core.Budget
}

func New(openingCents int64, categories []core.Category) *Store {
	return &Store{
		opening:    openingCents,
		categories: dedupeCategories(categories),
	}
}

// NewFromFiles seeds the store from a data directory: the opening balance
// from the first data row of financial_data.csv and categories from
// seed_categories.txt (one "id,name" or bare name per line). Missing files
// fall back to defaults.
func NewFromFiles(base string) *Store {
	opening := readOpeningBalance(filepath.Join(base, "financial_data.csv"))
	categories := readCategories(filepath.Join(base, "seed_categories.txt"))
	if len(categories) == 0 {
		categories = []core.Category{
			{ID: "housing", Name: "Housing"},
			{ID: "food", Name: "Food"},
			{ID: "transport", Name: "Transport"},
			{ID: "misc", Name: "Miscellaneous"},
		}
	}
	return New(opening, categories)
}

func (s *Store) bump() { s.revision.Add(1) }

func (s *Store) Revision() uint64 { return s.revision.Load() }

func (s *Store) OpeningBalance(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opening, nil
}

func (s *Store) ListCategories(context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx)
	s.bump()
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.transactions {
		if tx.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			s.bump()
			return nil
		}
	}
	return stores.ErrNotFound
}

func (s *Store) ListTransactions(context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...), nil
}

func (s *Store) CreateBill(_ context.Context, bill core.RecurringBill) error {
	if err := bill.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills = append(s.bills, cloneBill(bill))
	s.bump()
	return nil
}

func (s *Store) DeleteBill(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, bill := range s.bills {
		if bill.ID == id {
			s.bills = append(s.bills[:i], s.bills[i+1:]...)
			s.bump()
			return nil
		}
	}
	return stores.ErrNotFound
}

func (s *Store) ListBills(context.Context) ([]core.RecurringBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RecurringBill, len(s.bills))
	for i, bill := range s.bills {
		out[i] = cloneBill(bill)
	}
	return out, nil
}

func (s *Store) SetBillPaid(_ context.Context, id string, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bills {
		if s.bills[i].ID == id {
			s.bills[i].IsPaid = paid
			s.bump()
			return nil
		}
	}
	return stores.ErrNotFound
}

func (s *Store) SetBillAnchor(_ context.Context, id string, mk core.MonthKey, day int) error {
	if day < 1 || day > mk.Days() {
		return core.ErrInvalidDay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bills {
		if s.bills[i].ID == id {
			if s.bills[i].Anchors == nil {
				s.bills[i].Anchors = core.AnchorMap{}
			}
			s.bills[i].Anchors.Set(mk, day)
			s.bump()
			return nil
		}
	}
	return stores.ErrNotFound
}

func (s *Store) CreatePaycheck(_ context.Context, paycheck core.RecurringPaycheck) error {
	if err := paycheck.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paychecks = append(s.paychecks, clonePaycheck(paycheck))
	s.bump()
	return nil
}

func (s *Store) DeletePaycheck(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, paycheck := range s.paychecks {
		if paycheck.ID == id {
			s.paychecks = append(s.paychecks[:i], s.paychecks[i+1:]...)
			s.bump()
			return nil
		}
	}
	return stores.ErrNotFound
}

func (s *Store) ListPaychecks(context.Context) ([]core.RecurringPaycheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RecurringPaycheck, len(s.paychecks))
	for i, paycheck := range s.paychecks {
		out[i] = clonePaycheck(paycheck)
	}
	return out, nil
}

func (s *Store) SetPaycheckAnchor(_ context.Context, id string, mk core.MonthKey, day int) error {
	if day < 1 || day > mk.Days() {
		return core.ErrInvalidDay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.paychecks {
		if s.paychecks[i].ID == id {
			if s.paychecks[i].Anchors == nil {
				s.paychecks[i].Anchors = core.AnchorMap{}
			}
			s.paychecks[i].Anchors.Set(mk, day)
			s.bump()
			return nil
		}
	}
	return stores.ErrNotFound
}

func (s *Store) CreateBudget(_ context.Context, budget core.Budget) error {
	if err := budget.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.budgets {
		if existing.CategoryID == budget.CategoryID {
			return stores.ErrDuplicateBudget
		}
	}
	s.budgets = append(s.budgets, budget)
	s.bump()
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, budget := range s.budgets {
		if budget.ID == id {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			s.bump()
			return nil
		}
	}
	return stores.ErrNotFound
}

func (s *Store) ListBudgets(context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.budgets...), nil
}

// Anchor maps are shared references; clone so callers can't mutate stored
// state through a listed snapshot.
func cloneBill(b core.RecurringBill) core.RecurringBill {
	b.Anchors = cloneAnchors(b.Anchors)
	return b
}

func clonePaycheck(p core.RecurringPaycheck) core.RecurringPaycheck {
	p.Anchors = cloneAnchors(p.Anchors)
	return p
}

func cloneAnchors(a core.AnchorMap) core.AnchorMap {
	out := make(core.AnchorMap, len(a))
	for mk, day := range a {
		out[mk] = day
	}
	return out
}

func readOpeningBalance(path string) int64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil || len(rows) < 2 || len(rows[1]) == 0 {
		return 0
	}
	cents, err := core.ParseSignedDecimalToCents(rows[1][0])
	if err != nil {
		return 0
	}
	return cents
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if id, name, ok := strings.Cut(line, ","); ok {
			out = append(out, core.Category{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)})
		} else {
			out = append(out, core.Category{ID: strings.ToLower(line), Name: line})
		}
	}
	return dedupeCategories(out)
}

func dedupeCategories(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		if c.ID == "" {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
