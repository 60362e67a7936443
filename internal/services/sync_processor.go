package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/storage"
	"moneta/internal/stores"
)

// TransactionExporter writes one ledger row to the external spreadsheet.
type TransactionExporter interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) error
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending items (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of items to process per poll cycle (default: 10)
	BatchSize int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    10,
	}
}

// SyncProcessor drains the pending-sync queue into the spreadsheet
// exporter. It runs a polling loop as a safety net and also accepts AMQP
// messages for prompt processing.
type SyncProcessor struct {
	storage  *storage.SQLiteRepository
	exporter TransactionExporter
	config   SyncProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(
	store *storage.SQLiteRepository,
	exporter TransactionExporter,
	config SyncProcessorConfig,
) *SyncProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSyncProcessorConfig().BatchSize
	}
	return &SyncProcessor{
		storage:  store,
		exporter: exporter,
		config:   config,
	}
}

// Start begins the polling loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Drain anything left over from a previous run before the first tick.
	p.ProcessBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch exports one batch of pending transactions. It returns the
// number of successfully exported records.
func (p *SyncProcessor) ProcessBatch(ctx context.Context) int {
	items, err := p.storage.GetPendingSyncTransactions(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch pending sync transactions", "error", err)
		return 0
	}

	if len(items) == 0 {
		return 0
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", len(items))

	exported := 0
	for _, item := range items {
		select {
		case <-ctx.Done():
			return exported
		default:
		}

		if err := p.exportOne(ctx, item.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction",
				"id", item.ID, "error", err)
			if markErr := p.storage.MarkSyncError(ctx, item.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error",
					"id", item.ID, "error", markErr)
			}
			continue
		}
		exported++
	}
	return exported
}

// ProcessMessage handles one AMQP sync notification. A missing record is
// not an error: the transaction was deleted before the worker got to it.
func (p *SyncProcessor) ProcessMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	err := p.exportOne(ctx, msg.ID)
	if errors.Is(err, stores.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction gone before sync, skipping", "id", msg.ID)
		return nil
	}
	return err
}

func (p *SyncProcessor) exportOne(ctx context.Context, id string) error {
	tx, err := p.storage.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}

	if err := p.exporter.AppendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := p.storage.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	return nil
}
