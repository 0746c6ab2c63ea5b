package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"autofin/internal/amqp"
	"autofin/internal/api"
	"autofin/internal/cache"
	"autofin/internal/cli"
	"autofin/internal/dashboard"
	apphttp "autofin/internal/http"
	"autofin/internal/log"
	"autofin/internal/services"
	"autofin/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	stores := cli.InitBackend(ctx, logger, cfg)
	defer stores.Close()

	categories := cache.NewLRU[[]string](256, cfg.CacheTTL)
	client := api.NewClient(cfg.APIBaseURL, nil, cfg.APITimeout, api.WithCategoryCache(categories))
	sessions := session.NewManager(stores.Sessions)
	loader := dashboard.NewLoader(client, logger.WithComponent(log.ComponentDashboard))

	checks := []apphttp.ReadinessCheck{}
	if stores.Ping != nil {
		checks = append(checks, apphttp.ReadinessCheck{Name: "sqlite", Check: stores.Ping})
	}

	deps := apphttp.Deps{
		Dashboard:    loader,
		Transactions: client,
		Sessions:     sessions,
		FixedCosts:   client,
		Ledger:       client,
		Logger:       logger,
	}

	var broker *amqp.Client
	if cfg.ExportsEnabled() {
		var err error
		broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPPrefetch)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, exports disabled", "error", err)
		} else {
			defer broker.Close()
			deps.Exports = services.NewExportService(stores.Exports, broker)
			checks = append(checks, apphttp.ReadinessCheck{Name: "amqp", Check: broker.Ping})
			logger.Info("Report exports enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}
	deps.Checks = checks

	srv := apphttp.NewServer(":"+cfg.Port, cfg.RateLimitPerMinute, deps)

	sweeper := cache.NewSweeper(categories)

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		sweeper.Stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})
	sweeper.Start(runCtx, time.Minute)

	logger.Info("Starting autofin server",
		"port", cfg.Port,
		"api", cfg.APIBaseURL,
		"sessions", cfg.SessionBackend,
		"exports", deps.Exports != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Server stopped gracefully")
}
