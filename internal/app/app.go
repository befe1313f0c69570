// Package app wires configuration, storage and API clients into a ready
// orchestrator and releases them again on Close.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/config"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/database"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/lwa"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/orchestrator"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/repository"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/service"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/spapi"
)

type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	DB           *gorm.DB
	HTTPClient   *http.Client
	Orchestrator *orchestrator.Orchestrator
}

// New builds the application. On error everything acquired so far is released.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	a := &App{Config: cfg, Logger: logger}

	if limit := SetMemoryLimit(cfg.MemoryLimitMB); limit > 0 {
		logger.Info("memory limit set", zap.Int("limit_mb", cfg.MemoryLimitMB))
	}

	a.DB, err = database.Connect(ctx, cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	logger.Info("database connected")

	if cfg.RunMigrations {
		if err := database.RunMigrations(a.DB); err != nil {
			_ = a.Close()
			return nil, err
		}
		logger.Info("migrations completed")
	}

	a.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}

	tokenRepo := repository.NewTokenRepository(a.DB)
	reportRepo := repository.NewVendorReportRepository(a.DB)
	orderRepo := repository.NewPurchaseOrderRepository(a.DB)
	runRepo := repository.NewSyncRunRepository(a.DB)

	lwaClient := lwa.NewClient(cfg.ClientID, cfg.ClientSecret, cfg.TokenURL, a.HTTPClient)
	apiClient := spapi.NewClient(spapi.Options{
		Endpoint:        cfg.Endpoint,
		MarketplaceID:   cfg.MarketplaceID,
		HTTPClient:      a.HTTPClient,
		Limiter:         rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestBurst),
		Logger:          logger.Named("spapi"),
		PollInterval:    cfg.ReportPollInterval,
		DistributorView: cfg.DistributorView,
		SellingProgram:  cfg.SellingProgram,
	})

	tokens := service.NewTokenManager(tokenRepo, lwaClient, logger.Named("token"))
	ingester := service.NewReportIngester(reportRepo, logger.Named("ingest"))
	reports := service.NewReportSync(apiClient, ingester, cfg.ReportMaxWait, cfg.ReportDaysBack, logger.Named("reports"))
	orders := service.NewOrderSync(apiClient, orderRepo, logger.Named("orders"))

	a.Orchestrator = orchestrator.New(orchestrator.Deps{
		Tokens:        tokens,
		Reports:       reports,
		Orders:        orders,
		Runs:          runRepo,
		OrderDaysBack: cfg.OrderDaysBack,
		Logger:        logger.Named("sync"),
	})
	return a, nil
}

// Close releases the database pool and flushes the logger
func (a *App) Close() error {
	var errs []error
	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		a.DB = nil
	}
	if a.Logger != nil {
		// Sync fails on non-file outputs such as a terminal
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// SetMemoryLimit applies a soft heap limit of limitMB megabytes and returns
// the limit in bytes. Non-positive values leave the runtime default alone.
func SetMemoryLimit(limitMB int) int64 {
	if limitMB <= 0 {
		return 0
	}
	limit := int64(limitMB) << 20
	debug.SetMemoryLimit(limit)
	return limit
}
