package main

import (
	"context"
	"net/http"
	"time"

	"moneta/internal/amqp"
	"moneta/internal/cli"
	"moneta/internal/engine"
	apphttp "moneta/internal/http"
	"moneta/internal/numeric"
	"moneta/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("moneta")
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting moneta", "port", cfg.Port, "backend", cfg.DataBackend)

	result := cli.InitBackend(context.Background(), logger, cfg)
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	}()

	// AMQP is optional: without it transactions are still persisted and the
	// worker's polling loop picks them up for export.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sync notifications disabled", "error", err)
		} else {
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	nb := numeric.NewBackend(numeric.Config{
		Threshold: cfg.NumericThreshold,
		Workers:   cfg.NumericWorkers,
	}, logger.Logger)
	eng := engine.New(nb)

	ledger := services.NewLedgerService(result.Store, amqpClient)
	projection := services.NewProjectionService(result.Store, eng)
	summary := services.NewSummaryService(result.Store, eng, nil)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, projection, summary, result.Store)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := ledger.Close(); err != nil {
			logger.Error("Ledger close error", "error", err)
		}
	})

	logger.Info("Server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
}
