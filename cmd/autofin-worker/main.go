package main

import (
	"context"
	"errors"
	"os"
	"time"

	"autofin/internal/amqp"
	"autofin/internal/api"
	"autofin/internal/cli"
	"autofin/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent("worker")
	logger.Info("Starting autofin-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.ExportsEnabled() {
		logger.Error("AMQP_URL is required to consume export requests")
		os.Exit(1)
	}

	ctx := context.Background()
	stores := cli.InitBackend(ctx, logger, cfg)
	defer stores.Close()

	broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPPrefetch)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer broker.Close()

	client := api.NewClient(cfg.APIBaseURL, nil, cfg.APITimeout)
	exports := worker.NewExportWorker(client, stores.Reports, stores.Exports)

	runCtx, done := cli.GracefulShutdown(logger, 15*time.Second, nil)

	logger.Info("Consuming export requests",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"prefetch", cfg.AMQPPrefetch,
		"reports", cfg.ExportBackend)
	if err := broker.ConsumeExportRequests(runCtx, exports.HandleExportRequest); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Worker stopped gracefully")
}
