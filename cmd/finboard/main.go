package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/backend"
	"finboard/internal/cache"
	"finboard/internal/cli"
	"finboard/internal/config"
	"finboard/internal/export"
	apphttp "finboard/internal/http"
	"finboard/internal/log"
	"finboard/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentApp, os.Stdout)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	be, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	exportFormat, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		return err
	}

	reports := services.NewReportService(be.Store, services.ReportConfig{
		RecentLimit: cfg.ReportRecentLimit,
		CacheSize:   cfg.ReportCacheSize,
		CacheTTL:    cfg.ReportCacheTTL,
	})
	logger.WithComponent(log.ComponentReport).Info("Report service ready",
		"recent_limit", cfg.ReportRecentLimit,
		"cache_size", cfg.ReportCacheSize,
		"cache_ttl", cfg.ReportCacheTTL)
	transactions := services.NewTransactionService(be.Store, be.Publisher, reports)

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache))
	caches.Register(reports.Cache())

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Reports:      reports,
		Transactions: transactions,
		Ready:        be,
	}, apphttp.Options{
		Logger:             logger.WithComponent(log.ComponentHTTP),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ExportFormat:       exportFormat,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		caches.Run(gctx, cfg.ReportCacheTTL)
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting finboard server", log.FieldOperation, log.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
