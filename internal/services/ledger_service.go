// Package services orchestrates stores, the projection engine, and the
// sync pipeline behind the HTTP API and workers.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/stores"
)

// LedgerService owns record lifecycles: it assigns IDs, persists records,
// and notifies the sync pipeline about new transactions.
type LedgerService struct {
	store      stores.Store
	amqpClient *amqp.Client
}

func NewLedgerService(store stores.Store, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		store:      store,
		amqpClient: amqpClient,
	}
}

// CreateTransaction saves a transaction locally and publishes a sync message.
func (s *LedgerService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.NewString()
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	// Sync is best effort. The record is already durable locally.
	if err := s.publishSyncMessage(ctx, tx.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", tx.ID, "error", err)
	}

	return tx, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	return s.store.DeleteTransaction(ctx, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *LedgerService) CreateBill(ctx context.Context, bill core.RecurringBill) (core.RecurringBill, error) {
	bill.ID = uuid.NewString()
	if err := s.store.CreateBill(ctx, bill); err != nil {
		return core.RecurringBill{}, fmt.Errorf("save bill: %w", err)
	}
	return bill, nil
}

func (s *LedgerService) DeleteBill(ctx context.Context, id string) error {
	return s.store.DeleteBill(ctx, id)
}

func (s *LedgerService) ListBills(ctx context.Context) ([]core.RecurringBill, error) {
	return s.store.ListBills(ctx)
}

func (s *LedgerService) SetBillPaid(ctx context.Context, id string, paid bool) error {
	return s.store.SetBillPaid(ctx, id, paid)
}

func (s *LedgerService) SetBillAnchor(ctx context.Context, id string, mk core.MonthKey, day int) error {
	return s.store.SetBillAnchor(ctx, id, mk, day)
}

func (s *LedgerService) CreatePaycheck(ctx context.Context, paycheck core.RecurringPaycheck) (core.RecurringPaycheck, error) {
	paycheck.ID = uuid.NewString()
	if err := s.store.CreatePaycheck(ctx, paycheck); err != nil {
		return core.RecurringPaycheck{}, fmt.Errorf("save paycheck: %w", err)
	}
	return paycheck, nil
}

func (s *LedgerService) DeletePaycheck(ctx context.Context, id string) error {
	return s.store.DeletePaycheck(ctx, id)
}

func (s *LedgerService) ListPaychecks(ctx context.Context) ([]core.RecurringPaycheck, error) {
	return s.store.ListPaychecks(ctx)
}

func (s *LedgerService) SetPaycheckAnchor(ctx context.Context, id string, mk core.MonthKey, day int) error {
	return s.store.SetPaycheckAnchor(ctx, id, mk, day)
}

func (s *LedgerService) CreateBudget(ctx context.Context, budget core.Budget) (core.Budget, error) {
	budget.ID = uuid.NewString()
	if err := s.store.CreateBudget(ctx, budget); err != nil {
		return core.Budget{}, err
	}
	return budget, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, id string) error {
	return s.store.DeleteBudget(ctx, id)
}

func (s *LedgerService) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx)
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *LedgerService) publishSyncMessage(ctx context.Context, id string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishTransactionSync(ctx, id)
}

// Close closes the AMQP connection if one is configured.
func (s *LedgerService) Close() error {
	if s.amqpClient != nil {
		return s.amqpClient.Close()
	}
	return nil
}
