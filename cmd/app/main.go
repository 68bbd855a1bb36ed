package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"kotvukai/configs"
	"kotvukai/internal/adapter"
	"kotvukai/internal/adapter/aiobs"
	"kotvukai/internal/adapter/telegram"
	"kotvukai/internal/analysis"
	"kotvukai/internal/chart"
	"kotvukai/internal/database"
	httpdelivery "kotvukai/internal/delivery/http"
	"kotvukai/internal/domain"
	"kotvukai/internal/infra"
	"kotvukai/internal/logger"
	"kotvukai/internal/repository"
	"kotvukai/internal/service"
	"kotvukai/internal/trace"
	"kotvukai/internal/usecase"
	"kotvukai/internal/utils"
)

const version = "0.1.0"

func main() {
	// Load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := configs.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	format := "json"
	if cfg.IsDevelopment() {
		format = "console"
	}
	if err := logger.Init(logger.LogConfig{Level: cfg.Log.Level, Format: format}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	if err := trace.Init(cfg.Log.TracingEnabled, version); err != nil {
		logger.Warn(ctx, "Tracing disabled", "error", err)
	}
	loc := utils.SetLocation(cfg.Server.TimeZone)

	logger.Info(ctx, "Starting KotvukAI",
		"version", version,
		"env", cfg.Server.Env,
		"timezone", loc.String(),
	)

	// Persistence
	var (
		signalRepo   domain.SignalRepository
		settingsRepo domain.SettingsRepository
		closeDB      func()
	)
	if cfg.UsePostgres() {
		pool, err := infra.NewDatabase(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error(ctx, "Failed to connect to database", "error", err)
			os.Exit(1)
		}
		if err := database.RunMigrations(ctx, pool); err != nil {
			logger.Error(ctx, "Failed to run migrations", "error", err)
			os.Exit(1)
		}
		signalRepo = repository.NewSignalRepository(pool)
		settingsRepo = repository.NewSystemSettingsRepository(pool)
		closeDB = pool.Close
	} else {
		db, err := infra.NewSQLite(ctx, cfg.Database.SQLitePath)
		if err != nil {
			logger.Error(ctx, "Failed to open sqlite", "path", cfg.Database.SQLitePath, "error", err)
			os.Exit(1)
		}
		if err := database.RunSQLiteMigrations(ctx, db); err != nil {
			logger.Error(ctx, "Failed to run migrations", "error", err)
			os.Exit(1)
		}
		signalRepo = repository.NewSQLiteSignalRepository(db)
		settingsRepo = repository.NewSQLiteSettingsRepository(db)
		closeDB = func() { _ = db.Close() }
	}
	defer closeDB()

	planService := usecase.NewPlanService(settingsRepo)
	if err := planService.Seed(ctx); err != nil {
		logger.Warn(ctx, "Failed to seed plans", "error", err)
	}

	// Collaborators
	if cfg.AI.APIKey == "" {
		logger.Warn(ctx, "AI API key is not set, analyses will fail with a provider error")
	}
	aiService := aiobs.Wrap(adapter.NewAIClient(cfg.AI.BaseURL, cfg.AI.APIKey, adapter.WithModel(cfg.AI.Model)))
	lang := analysis.ParseLang(cfg.AI.PromptLang)
	marketService := service.NewMarketDataService(cfg.Market.BinanceURL, cfg.Market.FNGURL)
	notifier := telegram.NewNotificationService(cfg.Telegram.BotToken, cfg.Telegram.ChatID, "")
	if !notifier.Enabled() {
		logger.Info(ctx, "Telegram notifications disabled")
	}

	// Core components
	appCtx, stopApp := context.WithCancel(ctx)
	defer stopApp()

	extractor := analysis.NewExtractor(aiService, analysis.WithLang(lang))
	scheduler := infra.NewPollScheduler()
	viewport := chart.NewViewport(chart.DefaultWidth)
	synchronizer := chart.NewSynchronizer(marketService, viewport, scheduler,
		chart.WithPollInterval(cfg.Chart.PollInterval()),
		chart.WithBaseContext(appCtx),
	)
	scheduler.Start()

	if err := synchronizer.Configure(ctx, domain.ChartConfig{
		Symbol:         "BTCUSDT",
		Timeframe:      domain.Timeframe1h,
		Representation: domain.RepresentationCandles,
	}); err != nil {
		logger.Warn(ctx, "Failed to configure default chart", "error", err)
	}

	signalService := usecase.NewSignalService(signalRepo, notifier)
	chatService := usecase.NewChatService(aiService, lang)

	// Public API (echo)
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	httpdelivery.SetupRoutes(e, &httpdelivery.RouterConfig{
		MarketHandler:   httpdelivery.NewMarketHandler(marketService),
		ChartHandler:    httpdelivery.NewChartHandler(synchronizer, viewport),
		AnalysisHandler: httpdelivery.NewAnalysisHandler(extractor, marketService),
		ChatHandler:     httpdelivery.NewChatHandler(chatService),
		SignalHandler:   httpdelivery.NewSignalHandler(signalService),
		PlanHandler:     httpdelivery.NewPlanHandler(planService),
		HealthCheck:     signalService.Healthy,
	})
	apiSrv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Ops endpoints (chi)
	opsSrv := &http.Server{
		Addr: ":" + cfg.Server.OpsPort,
		Handler: httpdelivery.NewOpsRouter(httpdelivery.OpsConfig{
			DB:        signalRepo,
			Signals:   signalService,
			Refresh:   synchronizer.Refresh,
			Analyzed:  extractor.Count,
			Scheduled: scheduler.Jobs,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var g errgroup.Group
	for name, srv := range map[string]*http.Server{"api": apiSrv, "ops": opsSrv} {
		g.Go(func() error {
			logger.Info(ctx, "HTTP server listening", "server", name, "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", name, err)
			}
			return nil
		})
	}

	// Wait for interrupt signal or a server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	serveErr := make(chan error, 1)
	go func() { serveErr <- g.Wait() }()

	select {
	case sig := <-quit:
		logger.Info(ctx, "Shutting down", "signal", sig.String())
	case err := <-serveErr:
		logger.Error(ctx, "Server stopped unexpectedly", "error", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, srv := range []*http.Server{apiSrv, opsSrv} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "Server forced to shutdown", "addr", srv.Addr, "error", err)
		}
	}
	synchronizer.Teardown()
	stopApp()
	scheduler.Stop(shutdownCtx)
	extractor.Wait()
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "Failed to flush traces", "error", err)
	}

	logger.Info(shutdownCtx, "Server exited gracefully")
}
