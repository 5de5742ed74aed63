package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	appintegration "github.com/erp/catalogsync/internal/application/integration"
	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/infrastructure/auth"
	"github.com/erp/catalogsync/internal/infrastructure/cache"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/erp/catalogsync/internal/infrastructure/erp"
	"github.com/erp/catalogsync/internal/infrastructure/event"
	"github.com/erp/catalogsync/internal/infrastructure/logger"
	"github.com/erp/catalogsync/internal/infrastructure/notification"
	"github.com/erp/catalogsync/internal/infrastructure/persistence"
	"github.com/erp/catalogsync/internal/infrastructure/scheduler"
	"github.com/erp/catalogsync/internal/infrastructure/storage"
	"github.com/erp/catalogsync/internal/infrastructure/telemetry"
	"github.com/erp/catalogsync/internal/interfaces/http/handler"
	"github.com/erp/catalogsync/internal/interfaces/http/middleware"
	"github.com/erp/catalogsync/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	issueFor := flag.String("issue-token", "", "print an admin token for this subject and exit")
	scopes := flag.String("scopes", auth.ScopeSync+","+auth.ScopeOrders, "comma separated scopes of the issued token")
	ttl := flag.Duration("ttl", 24*time.Hour, "lifetime of the issued token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if *issueFor != "" {
		token, err := auth.NewJWTService(cfg.JWT).IssueToken(*issueFor, strings.Split(*scopes, ","), *ttl)
		if err != nil {
			fmt.Fprintln(os.Stderr, "issue token:", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting catalog sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = tracerProvider.Shutdown(context.Background())
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = meterProvider.Shutdown(context.Background())
	}()

	meter := meterProvider.Meter(telemetry.TracerName)
	syncMetrics, err := telemetry.NewSyncMetrics(meter)
	if err != nil {
		return err
	}

	// Storage
	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	store := persistence.NewGormLocalStore(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)
	queueRepo := persistence.NewGormQueueRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)

	runStore, err := cache.NewRunStore(cache.RedisConfig{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.App.Env != "production", log)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		_ = runStore.Close()
	}()

	// Remote ERP
	remote, err := erp.NewClient(erp.Config{
		BaseURL:  cfg.Remote.BaseURL,
		APIKey:   cfg.Remote.APIKey,
		Timeout:  cfg.Remote.Timeout,
		PageSize: cfg.Remote.PageSize,
	}, erp.WithLogger(log))
	if err != nil {
		return fmt.Errorf("erp client: %w", err)
	}

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}

	var syncerOpts []appintegration.ItemSyncerOption
	if cfg.Features.ImageImport {
		images, err := storage.NewS3ImageStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return fmt.Errorf("image store: %w", err)
		}
		if err := images.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("image store: %w", err)
		}
		syncerOpts = append(syncerOpts, appintegration.WithImageStore(images))
	}

	// Application services
	settingsService := appintegration.NewSettingsService(settingsRepo, remote, cfg.SyncDefaults(), log)
	syncer := appintegration.NewItemSyncer(store, remote, log, syncerOpts...)
	orchestrator := appintegration.NewOrchestrator(remote, syncer, runStore, runStore, notifier, log,
		appintegration.WithStashTTL(cfg.Sync.StashTTL),
		appintegration.WithOrchestratorMetrics(syncMetrics),
	)
	queueService := appintegration.NewQueueService(queueRepo, remote, syncer, notifier, log,
		appintegration.WithQueueMetrics(syncMetrics),
	)
	exporter := appintegration.NewOrderExporter(orders, remote, log,
		appintegration.WithExportMetrics(syncMetrics),
	)

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	statusHandler := appintegration.NewOrderStatusHandler(exporter, settingsService, log)
	eventBus.Subscribe(statusHandler, statusHandler.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()
	statusService := appintegration.NewOrderStatusService(orders, eventBus, log)

	// Scheduled sync
	if cfg.Sync.ScheduleEnabled {
		trigger, err := scheduler.NewQueueTrigger(scheduler.DefaultQueueTriggerConfig(), settingsService, queueService, log)
		if err != nil {
			return err
		}
		if err := trigger.Start(ctx); err != nil {
			return err
		}
		defer func() {
			_ = trigger.Stop(context.Background())
		}()
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineConfig{
		Logger:    log,
		Validator: auth.NewJWTService(cfg.JWT),
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Meter:       meter,
		MaxBodySize: cfg.HTTP.MaxBodySize,
		Health:      handler.NewHealthHandler(map[string]handler.Pinger{"database": db}),
		Sync:        handler.NewSyncHandler(orchestrator, queueService, settingsService),
		Orders:      handler.NewOrderHandler(exporter, statusService, settingsService),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited gracefully")
	return nil
}

func newNotifier(cfg *config.Config, log *zap.Logger) (integration.Notifier, error) {
	if cfg.Mail.Host == "" {
		return notification.NewLogNotifier(log), nil
	}
	mailer, err := notification.NewMailNotifier(cfg.Mail, log)
	if err != nil {
		return nil, fmt.Errorf("mail notifier: %w", err)
	}
	return mailer, nil
}
