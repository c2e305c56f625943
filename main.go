// Package main provides the entry point for the civic portal API
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/amirphl/civic-portal/app/handlers"
	"github.com/amirphl/civic-portal/app/logging"
	"github.com/amirphl/civic-portal/app/middleware"
	"github.com/amirphl/civic-portal/app/router"
	"github.com/amirphl/civic-portal/app/scheduler"
	"github.com/amirphl/civic-portal/app/services"
	businessflow "github.com/amirphl/civic-portal/business_flow"
	"github.com/amirphl/civic-portal/config"
	"github.com/amirphl/civic-portal/repository"
	"github.com/amirphl/civic-portal/repository/sqlitestore"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	logger    *zap.Logger
	stopFuncs []func()
	closers   []func() error
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, syncLogger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer syncLogger()

	logger.Info("Starting civic portal",
		zap.String("environment", cfg.Deployment.Environment),
		zap.String("version", cfg.Deployment.Version),
		zap.String("commit", cfg.Deployment.CommitHash),
	)

	app, err := initializeApplication(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.router.Start(router.Address(cfg.Server))
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Shutting down gracefully", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server stopped unexpectedly", zap.Error(err))
		}
	}

	app.shutdown()
	logger.Info("Server stopped")
}

func (a *Application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.router.Shutdown(ctx); err != nil {
		a.logger.Error("Error during HTTP shutdown", zap.Error(err))
	}

	for _, fn := range a.stopFuncs {
		fn()
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("Error releasing resource", zap.Error(err))
		}
	}
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB
	if cfg.RedisPassword != "" {
		opt.Password = cfg.RedisPassword
	}

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", opt.Addr), zap.Int("db", cfg.RedisDB))
	return rc, nil
}

// initializeCounterStore picks the counter backend. Only the Postgres store joins the
// request transaction, so only it records allocation history atomically.
func initializeCounterStore(cfg config.SequenceConfig, db *gorm.DB, logger *zap.Logger) (repository.CounterStore, func() error, bool, error) {
	switch cfg.Store {
	case config.SequenceStoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o750); err != nil {
			return nil, nil, false, fmt.Errorf("create sqlite directory: %w", err)
		}
		store, err := sqlitestore.Open(sqlitestore.Config{
			Path:     cfg.SQLitePath,
			PoolSize: cfg.SQLitePoolSize,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, false, err
		}
		logger.Warn("Using the embedded SQLite counter store; run a single replica only", zap.String("path", cfg.SQLitePath))
		return store, store.Close, false, nil
	case config.SequenceStorePostgres:
		return repository.NewSequenceCounterRepository(db), nil, true, nil
	default:
		return nil, nil, false, fmt.Errorf("unknown sequence store %q", cfg.Store)
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig, logger *zap.Logger) (*Application, error) {
	app := &Application{config: cfg, logger: logger}

	db, err := repository.OpenDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	if cfg.Database.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			return nil, err
		}
		logger.Info("Database schema migrated")
	}

	rc, err := initializeCache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		app.closers = append(app.closers, rc.Close)
		app.stopFuncs = append(app.stopFuncs,
			scheduler.StartCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthInterval, logger.Named("cache")))
	}

	// Initialize repositories
	jurisdictionRepo := repository.NewJurisdictionRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	allocationRepo := repository.NewCodeAllocationRepository(db)
	transactor := repository.NewTransactor(db)

	counterStore, closeStore, transactional, err := initializeCounterStore(cfg.Sequence, db, logger)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		app.closers = append(app.closers, closeStore)
	}

	tokenService, err := services.NewTokenService(cfg.JWT.SecretKey, cfg.JWT.AdminTokenTTL, cfg.JWT.Issuer, cfg.JWT.Audience)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Initialize flows
	lookup := businessflow.NewJurisdictionLookup(jurisdictionRepo, rc, logger)
	allocatorOpts := []businessflow.CodeAllocatorOption{
		businessflow.WithAllocationObserver(middleware.AllocationMetrics{}),
		businessflow.WithAllocatorLogger(logger),
	}
	if transactional {
		allocatorOpts = append(allocatorOpts,
			businessflow.WithAllocationHistory(allocationRepo),
			businessflow.WithTransactor(transactor),
		)
	}
	allocator := businessflow.NewCodeAllocator(lookup, counterStore, allocatorOpts...)

	jurisdictionFlow := businessflow.NewJurisdictionFlow(jurisdictionRepo, allocator, logger)
	projectFlow := businessflow.NewProjectFlow(jurisdictionRepo, projectRepo, allocator, transactor, businessflow.RetryPolicy{
		Attempts: cfg.Sequence.ProjectCreateRetries,
		Delay:    cfg.Sequence.ProjectRetryDelay,
	}, logger)

	var adminTransactor repository.Transactor
	if transactional {
		adminTransactor = transactor
	}
	sequenceAdminFlow := businessflow.NewSequenceAdminFlow(counterStore, jurisdictionRepo, adminTransactor, logger)

	// Initialize handlers
	appRouter := router.NewFiberRouter(cfg, router.Handlers{
		Jurisdiction:  handlers.NewJurisdictionHandler(jurisdictionFlow, cfg.Server.RequestTimeout),
		Project:       handlers.NewProjectHandler(projectFlow, cfg.Server.RequestTimeout),
		SequenceAdmin: handlers.NewSequenceAdminHandler(sequenceAdminFlow, cfg.Server.RequestTimeout),
	}, middleware.NewAuthMiddleware(tokenService), logger)
	app.router = appRouter

	monitor := scheduler.NewSequenceMonitor(counterStore, cfg.Sequence.MonitorInterval, cfg.Sequence.WarnRatio, prometheus.DefaultRegisterer, logger)
	app.stopFuncs = append(app.stopFuncs, monitor.Start(context.Background()))

	return app, nil
}
