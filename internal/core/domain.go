package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

type (
	// Frequency is the repeat cadence of a recurring paycheck.
	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Category labels transactions for spend analysis and budgeting.
	Category struct {
		ID   string
		Name string
	}

	// Transaction is a one-off ledger entry. Amounts are signed cents:
	// negative for expenses, positive for income.
	Transaction struct {
		ID          string
		Date        Date
		Description string
		CategoryID  string
		AmountCents int64
	}

	// RecurringBill is due once per month on its anchored day.
	// Anchors maps a month to the day the bill is due that month; a month
	// without an entry falls back to BaseDueDay.
	RecurringBill struct {
		ID         string
		Name       string
		Amount     Money
		Category   string
		IsPaid     bool
		BaseDueDay int
		Anchors    AnchorMap
	}

	// RecurringPaycheck repeats within a month according to its frequency,
	// starting from the anchor day for that month. A month without an anchor
	// produces no occurrences.
	RecurringPaycheck struct {
		ID        string
		Source    string
		Amount    Money
		Frequency Frequency
		Anchors   AnchorMap
	}

	// Budget caps monthly spend for one category.
	Budget struct {
		ID           string
		CategoryID   string
		MonthlyLimit Money
		Notes        string
	}

	// AnchorMap maps a month key to the day-of-month a recurring item is
	// anchored on. Absence means "no occurrence that month"; a zero day is
	// never stored.
	AnchorMap map[MonthKey]int
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category")
)

// IntervalDays returns the repeat step in days within a month.
// Monthly returns 31 so that any month length yields exactly one occurrence.
func (f Frequency) IntervalDays() int {
	switch f {
	case Weekly:
		return 7
	case Biweekly:
		return 14
	default:
		return 31
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Weekly, Biweekly, Monthly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

// Day returns the anchored day for a month, or false if the item has no
// anchor that month.
func (a AnchorMap) Day(mk MonthKey) (int, bool) {
	day, ok := a[mk]
	return day, ok
}

// Set records the anchor day for a month, replacing any previous value.
func (a AnchorMap) Set(mk MonthKey, day int) {
	a[mk] = day
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewDate creates a new Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// MonthKey returns the key of the month the date falls in.
func (d Date) MonthKey() MonthKey {
	return NewMonthKey(d.Year(), int(d.Time.Month()))
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.AmountCents == 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// IsExpense reports whether the transaction reduces the balance.
func (t Transaction) IsExpense() bool {
	return t.AmountCents < 0
}

// Magnitude returns the unsigned amount in cents.
func (t Transaction) Magnitude() int64 {
	if t.AmountCents < 0 {
		return -t.AmountCents
	}
	return t.AmountCents
}

func (b RecurringBill) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.BaseDueDay < 1 || b.BaseDueDay > 31 {
		return ErrInvalidDay
	}
	for mk, day := range b.Anchors {
		if day < 1 || day > mk.Days() {
			return ErrInvalidDay
		}
	}
	return nil
}

// DueDay resolves the day the bill is due in the given month: the anchor for
// that month when present, otherwise the base due day.
func (b RecurringBill) DueDay(mk MonthKey) int {
	if day, ok := b.Anchors.Day(mk); ok {
		return day
	}
	return b.BaseDueDay
}

func (p RecurringPaycheck) Validate() error {
	if len(strings.TrimSpace(p.Source)) == 0 {
		return ErrEmptyName
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if err := p.Frequency.Validate(); err != nil {
		return err
	}
	for mk, day := range p.Anchors {
		if day < 1 || day > mk.Days() {
			return ErrInvalidDay
		}
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if err := b.MonthlyLimit.Validate(); err != nil {
		return err
	}
	if len(b.Notes) > 500 {
		return errors.New("notes too long (max 500 characters)")
	}
	return nil
}
