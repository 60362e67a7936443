package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"moneta/internal/amqp"
	"moneta/internal/cli"
	"moneta/internal/core"
	"moneta/internal/engine"
	gexport "moneta/internal/export/google"
	"moneta/internal/numeric"
	"moneta/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("sync-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting sync-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var exporter *gexport.Exporter
	if cfg.GoogleSpreadsheetID != "" {
		var err error
		exporter, err = gexport.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize spreadsheet exporter", "error", err)
			return
		}
		logger.Info("Spreadsheet exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Spreadsheet export disabled, no GOOGLE_SPREADSHEET_ID provided")
	}

	var processor *services.SyncProcessor
	if exporter != nil {
		processor = services.NewSyncProcessor(repo, exporter, services.SyncProcessorConfig{
			PollInterval: cfg.SyncInterval,
			BatchSize:    cfg.SyncBatchSize,
		})
		if err := processor.Start(ctx); err != nil {
			logger.Error("Failed to start sync processor", "error", err)
			return
		}
		logger.Info("Sync processor started", "interval", cfg.SyncInterval, "batch_size", cfg.SyncBatchSize)
	} else {
		logger.Info("Skipping sync processing, no exporter available")
	}

	// Consume AMQP notifications so new transactions export promptly instead
	// of waiting for the next poll.
	if processor != nil && cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, falling back to polling only", "error", err)
		} else {
			defer amqpClient.Close()
			go func() {
				handler := func(msg *amqp.TransactionSyncMessage) error {
					return processor.ProcessMessage(ctx, msg)
				}
				if err := amqpClient.ConsumeTransactionSync(ctx, handler); err != nil && err != context.Canceled {
					logger.Error("Message consumption failed", "error", err)
					cancel()
				}
			}()
		}
	}

	// Monthly summary export, scheduled for shortly after each month closes.
	var scheduler *cron.Cron
	if exporter != nil {
		nb := numeric.NewBackend(numeric.Config{
			Threshold: cfg.NumericThreshold,
			Workers:   cfg.NumericWorkers,
		}, logger.Logger)
		eng := engine.New(nb)

		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.ExportCron, func() {
			exportCtx, exportCancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer exportCancel()

			// Anchor the aggregation clock inside the month that just
			// closed, so the export covers it regardless of run time.
			anchor := core.MonthKeyOf(time.Now().UTC()).Start().AddDate(0, 0, -1)
			previous := core.MonthKeyOf(anchor)
			summary := services.NewSummaryService(repo, eng, fixedClock{at: anchor})

			agg, err := summary.Aggregate(exportCtx, core.WindowCurrentMonth)
			if err != nil {
				logger.Error("Monthly aggregation failed", "error", err, "month", previous.String())
				return
			}
			if err := exporter.ExportMonthlySummary(exportCtx, previous, agg); err != nil {
				logger.Error("Monthly summary export failed", "error", err, "month", previous.String())
				return
			}
			logger.Info("Monthly summary exported", "month", previous.String())
		})
		if err != nil {
			logger.Error("Invalid export schedule", "error", err, "schedule", cfg.ExportCron)
			return
		}
		scheduler.Start()
		logger.Info("Monthly export scheduled", "schedule", cfg.ExportCron)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		if processor != nil {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := processor.Stop(stopCtx); err != nil {
				logger.Error("Sync processor stop error", "error", err)
			}
		}
		cancel()
	})

	cli.WaitForShutdown(shutdownCtx, done)
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }
