// Package storage provides the SQLite-backed Store used in production.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"moneta/internal/core"
	"moneta/internal/stores"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db       *sql.DB
	revision atomic.Uint64
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) bump() { r.revision.Add(1) }

// Revision counts mutations in this process. It keys derived-view caches,
// so it only has to change whenever stored records change, not survive
// restarts.
func (r *SQLiteRepository) Revision() uint64 { return r.revision.Load() }

func (r *SQLiteRepository) OpeningBalance(ctx context.Context) (int64, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'opening_balance_cents'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read opening balance: %w", err)
	}
	cents, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse opening balance %q: %w", value, err)
	}
	return cents, nil
}

// SetOpeningBalance replaces the balance projections start from.
func (r *SQLiteRepository) SetOpeningBalance(ctx context.Context, cents int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('opening_balance_cents', ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		strconv.FormatInt(cents, 10))
	if err != nil {
		return fmt.Errorf("set opening balance: %w", err)
	}
	r.bump()
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertCategory inserts a category or renames an existing one.
func (r *SQLiteRepository) UpsertCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	r.bump()
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, tx_date, description, category_id, amount_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		tx.ID, tx.Date.Format(dateLayout), tx.Description, tx.CategoryID, tx.AmountCents)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	r.bump()

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"description", tx.Description,
		"amount_cents", tx.AmountCents,
		"date", tx.Date.Format(dateLayout))

	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return r.requireRow(res)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var (
		tx      core.Transaction
		rawDate string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tx_date, description, category_id, amount_cents
		 FROM transactions WHERE id = ?`, id).
		Scan(&tx.ID, &rawDate, &tx.Description, &tx.CategoryID, &tx.AmountCents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, stores.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	day, err := time.ParseInLocation(dateLayout, rawDate, time.UTC)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", rawDate, err)
	}
	tx.Date = core.Date{Time: day}
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tx_date, description, category_id, amount_cents
		 FROM transactions ORDER BY tx_date, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx      core.Transaction
			rawDate string
		)
		if err := rows.Scan(&tx.ID, &rawDate, &tx.Description, &tx.CategoryID, &tx.AmountCents); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		day, err := time.ParseInLocation(dateLayout, rawDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", rawDate, err)
		}
		tx.Date = core.Date{Time: day}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateBill(ctx context.Context, bill core.RecurringBill) error {
	if err := bill.Validate(); err != nil {
		return err
	}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recurring_bills (id, name, amount_cents, category_id, is_paid, base_due_day)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			bill.ID, bill.Name, bill.Amount.Cents, bill.Category, bill.IsPaid, bill.BaseDueDay)
		if err != nil {
			return fmt.Errorf("create bill: %w", err)
		}
		return insertAnchors(ctx, tx, bill.ID, bill.Anchors)
	})
	if err != nil {
		return err
	}
	r.bump()
	return nil
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, id string) error {
	return r.deleteRecurring(ctx, "recurring_bills", id)
}

func (r *SQLiteRepository) ListBills(ctx context.Context) ([]core.RecurringBill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount_cents, category_id, is_paid, base_due_day
		 FROM recurring_bills ORDER BY base_due_day, name`)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringBill
	for rows.Next() {
		var b core.RecurringBill
		if err := rows.Scan(&b.ID, &b.Name, &b.Amount.Cents, &b.Category, &b.IsPaid, &b.BaseDueDay); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		anchors, err := r.loadAnchors(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Anchors = anchors
	}
	return out, nil
}

func (r *SQLiteRepository) SetBillPaid(ctx context.Context, id string, paid bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_bills SET is_paid = ? WHERE id = ?`, paid, id)
	if err != nil {
		return fmt.Errorf("set bill paid: %w", err)
	}
	return r.requireRow(res)
}

func (r *SQLiteRepository) SetBillAnchor(ctx context.Context, id string, mk core.MonthKey, day int) error {
	return r.setAnchor(ctx, "recurring_bills", id, mk, day)
}

func (r *SQLiteRepository) CreatePaycheck(ctx context.Context, paycheck core.RecurringPaycheck) error {
	if err := paycheck.Validate(); err != nil {
		return err
	}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recurring_paychecks (id, source, amount_cents, frequency)
			 VALUES (?, ?, ?, ?)`,
			paycheck.ID, paycheck.Source, paycheck.Amount.Cents, string(paycheck.Frequency))
		if err != nil {
			return fmt.Errorf("create paycheck: %w", err)
		}
		return insertAnchors(ctx, tx, paycheck.ID, paycheck.Anchors)
	})
	if err != nil {
		return err
	}
	r.bump()
	return nil
}

func (r *SQLiteRepository) DeletePaycheck(ctx context.Context, id string) error {
	return r.deleteRecurring(ctx, "recurring_paychecks", id)
}

func (r *SQLiteRepository) ListPaychecks(ctx context.Context) ([]core.RecurringPaycheck, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, amount_cents, frequency
		 FROM recurring_paychecks ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("list paychecks: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringPaycheck
	for rows.Next() {
		var (
			p    core.RecurringPaycheck
			freq string
		)
		if err := rows.Scan(&p.ID, &p.Source, &p.Amount.Cents, &freq); err != nil {
			return nil, fmt.Errorf("scan paycheck: %w", err)
		}
		p.Frequency = core.Frequency(freq)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		anchors, err := r.loadAnchors(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Anchors = anchors
	}
	return out, nil
}

func (r *SQLiteRepository) SetPaycheckAnchor(ctx context.Context, id string, mk core.MonthKey, day int) error {
	return r.setAnchor(ctx, "recurring_paychecks", id, mk, day)
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, budget core.Budget) error {
	if err := budget.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, category_id, limit_cents, notes)
		 VALUES (?, ?, ?, ?)`,
		budget.ID, budget.CategoryID, budget.MonthlyLimit.Cents, budget.Notes)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return stores.ErrDuplicateBudget
		}
		return fmt.Errorf("create budget: %w", err)
	}
	r.bump()
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return r.requireRow(res)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, limit_cents, notes FROM budgets ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.MonthlyLimit.Cents, &b.Notes); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return stores.ErrNotFound
	}
	r.bump()
	return nil
}

func (r *SQLiteRepository) deleteRecurring(ctx context.Context, table, id string) error {
	var deleted int64
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if deleted == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recurring_anchors WHERE item_id = ?`, id); err != nil {
			return fmt.Errorf("delete anchors: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return stores.ErrNotFound
	}
	r.bump()
	return nil
}

func (r *SQLiteRepository) setAnchor(ctx context.Context, table, id string, mk core.MonthKey, day int) error {
	if day < 1 || day > mk.Days() {
		return core.ErrInvalidDay
	}

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check %s: %w", table, err)
	}
	if !exists {
		return stores.ErrNotFound
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO recurring_anchors (item_id, month_key, day) VALUES (?, ?, ?)
		 ON CONFLICT (item_id, month_key) DO UPDATE SET day = excluded.day`,
		id, string(mk), day)
	if err != nil {
		return fmt.Errorf("set anchor: %w", err)
	}
	r.bump()
	return nil
}

func (r *SQLiteRepository) loadAnchors(ctx context.Context, itemID string) (core.AnchorMap, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT month_key, day FROM recurring_anchors WHERE item_id = ?`, itemID)
	if err != nil {
		return nil, fmt.Errorf("load anchors: %w", err)
	}
	defer rows.Close()

	anchors := core.AnchorMap{}
	for rows.Next() {
		var (
			mk  string
			day int
		)
		if err := rows.Scan(&mk, &day); err != nil {
			return nil, fmt.Errorf("scan anchor: %w", err)
		}
		anchors[core.MonthKey(mk)] = day
	}
	return anchors, rows.Err()
}

func insertAnchors(ctx context.Context, tx *sql.Tx, itemID string, anchors core.AnchorMap) error {
	for mk, day := range anchors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recurring_anchors (item_id, month_key, day) VALUES (?, ?, ?)`,
			itemID, string(mk), day); err != nil {
			return fmt.Errorf("insert anchor: %w", err)
		}
	}
	return nil
}
