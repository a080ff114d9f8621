package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bankdash/internal/backend"
	"bankdash/internal/bankapi"
	"bankdash/internal/cache"
	"bankdash/internal/cli"
	"bankdash/internal/dashboard"
	apphttp "bankdash/internal/http"
	"bankdash/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	storage, err := factory.CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, "backend", cfg.SessionBackend)
		os.Exit(1)
	}

	bank := bankapi.New(cfg.APIBaseURL, cfg.APITimeout, logger)

	snapshots := cache.NewLRUCache[dashboard.Snapshot](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(snapshots)
	caches.StartCleanup(time.Minute)

	state := dashboard.NewStateProvider(bank, storage.Tokens, snapshots, logger)
	deps := dashboard.Deps{
		Tokens:    storage.Tokens,
		Flights:   dashboard.NewFlights(),
		Publisher: storage.Publisher,
		Logger:    logger,
	}

	checks := map[string]backend.Pinger{}
	if storage.Pinger != nil {
		checks["token_store"] = storage.Pinger
	}

	srv := apphttp.NewServer(apphttp.Deps{
		Tokens:   storage.Tokens,
		State:    state,
		Transfer: dashboard.NewTransferController(bank, deps),
		Lookup:   dashboard.NewLookupController(bank, deps),
		Primary:  dashboard.NewPrimaryController(bank, deps),
		Accounts: dashboard.NewAccountController(bank, deps),
		Checks:   checks,
	}, apphttp.Options{
		Addr:               ":" + cfg.Port,
		CookieSecure:       cfg.CookieSecure,
		Location:           cfg.Location(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := storage.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting bankdash server",
		"port", cfg.Port,
		"api", cfg.APIBaseURL,
		"backend", cfg.SessionBackend,
		"activity_events", cfg.AMQPEnabled(),
		"timezone", cfg.Location().String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
