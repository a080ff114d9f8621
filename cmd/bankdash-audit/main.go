// Command bankdash-audit consumes dashboard activity events from AMQP and
// writes them to the SQLite audit log.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bankdash/internal/amqp"
	"bankdash/internal/cli"
	"bankdash/internal/log"
	"bankdash/internal/worker"
)

const (
	summaryInterval = 15 * time.Minute
	summaryWindow   = 500
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentAudit)
	logger.Info("Starting bankdash-audit")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the audit worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		_ = repo.Close()
		os.Exit(1)
	}

	audit := worker.NewAuditWorker(repo, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
		if err := repo.Close(); err != nil {
			logger.Error("SQLite close error", log.FieldError, err)
		}
	})

	if _, err := audit.Summarize(ctx, summaryWindow); err != nil {
		logger.Warn("Startup summary failed", log.FieldError, err)
	}
	go audit.RunSummaries(ctx, summaryInterval, summaryWindow)

	go func() {
		if err := client.ConsumeActivity(ctx, audit.HandleActivity); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Audit worker stopped")
}
