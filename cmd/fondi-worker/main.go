package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"fondi/internal/amqp"
	"fondi/internal/cli"
	"fondi/internal/export/google"
	"fondi/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting fondi-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to run the worker")
		os.Exit(1)
	}

	store, cleanup := cli.InitBackend(context.Background(), logger, cfg)
	defer cleanup()

	importClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPImportQueue)
	if err != nil {
		logger.Error("Failed to initialize import consumer", "error", err)
		os.Exit(1)
	}
	defer importClient.Close()

	syncClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPSyncQueue)
	if err != nil {
		logger.Error("Failed to initialize sync consumer", "error", err)
		os.Exit(1)
	}
	defer syncClient.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Both consumers run under one group: if either dies the other stops
	// too and the supervisor restarts the whole process.
	g, ctx := errgroup.WithContext(sigCtx)

	analyzer := services.NewImportProcessor(store)
	g.Go(func() error {
		return importClient.ConsumeImportJobs(ctx, func(msg *amqp.ImportJobMessage) error {
			return analyzer.Analyze(ctx, msg.BatchID)
		})
	})

	// The sync consumer needs somewhere to append rows. Without sheet
	// credentials it is not started; the durable queue holds the messages
	// until a configured worker picks them up.
	if os.Getenv("GOOGLE_SPREADSHEET_ID") != "" {
		appender, err := google.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		syncer := services.NewSyncProcessor(store, appender)
		g.Go(func() error {
			return syncClient.ConsumeOperationSync(ctx, func(msg *amqp.OperationSyncMessage) error {
				return syncer.HandleOperationSync(ctx, msg)
			})
		})
	} else {
		logger.Info("Export sync disabled - no GOOGLE_SPREADSHEET_ID provided, sync messages stay queued")
	}

	logger.Info("fondi-worker started",
		"import_queue", cfg.AMQPImportQueue,
		"sync_queue", cfg.AMQPSyncQueue,
		"backend", cfg.DataBackend)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("fondi-worker stopped gracefully")
}
