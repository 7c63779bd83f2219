package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"fondi/internal/cli"
	"fondi/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting distribution-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	store, cleanup := cli.InitBackend(context.Background(), logger, cfg)
	defer cleanup()

	// Recurring incomes recorded here distribute like manual ones; the
	// export sync for the resulting contributions is the API's concern,
	// so no publisher is wired.
	ops := services.NewOperationService(store, nil)
	distribution := services.NewDistributionService(store, ops)
	processor := services.NewRecurringProcessor(store, distribution)

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		count, err := processor.ProcessDue(ctx, time.Now())
		if err != nil {
			logger.Error("Recurring income processing failed", "error", err)
			return
		}
		logger.Info("Recurring income processing complete", "processed", count)
	}

	// Catch up on startup so a restart around the scheduled time cannot
	// skip a payday; dueness checks make the run idempotent.
	run()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.DistributionCron, run); err != nil {
		logger.Error("Invalid distribution cron spec", "error", err, "spec", cfg.DistributionCron)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Distribution schedule armed", "spec", cfg.DistributionCron)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		// Stop returns once no tick will fire again; wait for a running
		// tick to finish before letting the process exit.
		<-scheduler.Stop().Done()
	})
	cli.WaitForShutdown(ctx, done)
	logger.Info("distribution-worker stopped gracefully")
}
