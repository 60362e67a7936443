package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/storage"
)

type recordingExporter struct {
	exported []core.Transaction
	fail     bool
}

func (e *recordingExporter) AppendTransaction(_ context.Context, tx core.Transaction) error {
	if e.fail {
		return errors.New("export unavailable")
	}
	e.exported = append(e.exported, tx)
	return nil
}

func newSyncTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "moneta.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedSyncTransaction(t *testing.T, repo *storage.SQLiteRepository, id string) {
	t.Helper()
	err := repo.CreateTransaction(context.Background(), core.Transaction{
		ID:          id,
		Date:        core.NewDate(2026, 3, 1),
		Description: "Coffee",
		CategoryID:  "food",
		AmountCents: -450,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
}

func TestSyncProcessor_ProcessBatch(t *testing.T) {
	ctx := context.Background()
	repo := newSyncTestRepo(t)
	seedSyncTransaction(t, repo, "tx-1")
	seedSyncTransaction(t, repo, "tx-2")

	exporter := &recordingExporter{}
	p := NewSyncProcessor(repo, exporter, SyncProcessorConfig{BatchSize: 10})

	if got := p.ProcessBatch(ctx); got != 2 {
		t.Fatalf("ProcessBatch = %d, want 2", got)
	}
	if len(exporter.exported) != 2 {
		t.Fatalf("exported %d transactions, want 2", len(exporter.exported))
	}

	// Everything synced, second pass is a no-op.
	if got := p.ProcessBatch(ctx); got != 0 {
		t.Fatalf("second ProcessBatch = %d, want 0", got)
	}
}

func TestSyncProcessor_ExportFailureMarksError(t *testing.T) {
	ctx := context.Background()
	repo := newSyncTestRepo(t)
	seedSyncTransaction(t, repo, "tx-1")

	exporter := &recordingExporter{fail: true}
	p := NewSyncProcessor(repo, exporter, SyncProcessorConfig{BatchSize: 10})

	if got := p.ProcessBatch(ctx); got != 0 {
		t.Fatalf("ProcessBatch = %d, want 0", got)
	}

	// Errored rows leave the pending set so retries are deliberate.
	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncTransactions: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected errored row out of pending set, got %+v", pending)
	}
}

func TestSyncProcessor_ProcessMessage(t *testing.T) {
	ctx := context.Background()
	repo := newSyncTestRepo(t)
	seedSyncTransaction(t, repo, "tx-1")

	exporter := &recordingExporter{}
	p := NewSyncProcessor(repo, exporter, DefaultSyncProcessorConfig())

	if err := p.ProcessMessage(ctx, amqp.NewTransactionSyncMessage("tx-1")); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if len(exporter.exported) != 1 || exporter.exported[0].ID != "tx-1" {
		t.Fatalf("unexpected exports: %+v", exporter.exported)
	}

	// Deleted records are skipped without error.
	if err := p.ProcessMessage(ctx, amqp.NewTransactionSyncMessage("ghost")); err != nil {
		t.Fatalf("ProcessMessage for missing record: %v", err)
	}
}

func TestSyncProcessor_StartStop(t *testing.T) {
	ctx := context.Background()
	repo := newSyncTestRepo(t)
	p := NewSyncProcessor(repo, &recordingExporter{}, DefaultSyncProcessorConfig())

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !p.IsRunning() {
		t.Fatal("expected processor to be running")
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("expected error starting twice")
	}

	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Fatal("expected processor to be stopped")
	}
}
