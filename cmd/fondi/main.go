package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fondi/internal/amqp"
	"fondi/internal/cli"
	apphttp "fondi/internal/http"
	"fondi/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store, cleanup := cli.InitBackend(context.Background(), logger, cfg)
	defer cleanup()

	// Publishers stay nil without a broker: imports are analyzed inline
	// and export syncs are skipped.
	var (
		syncPub   services.SyncPublisher
		importPub services.ImportPublisher
	)
	if cfg.AMQPURL != "" {
		if client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPSyncQueue); err != nil {
			logger.Warn("Failed to initialize sync publisher, export sync disabled", "error", err)
		} else {
			defer client.Close()
			syncPub = client
		}
		if client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPImportQueue); err != nil {
			logger.Warn("Failed to initialize import publisher, analyzing imports inline", "error", err)
		} else {
			defer client.Close()
			importPub = client
		}
	} else {
		logger.Info("AMQP disabled - imports analyze inline, export sync off")
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, syncPub, importPub, apphttp.Options{
		RatePerMinute: cfg.RateLimitPerMinute,
		OverviewTTL:   cfg.OverviewCacheTTL,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fondi server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
