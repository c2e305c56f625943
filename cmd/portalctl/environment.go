package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/amirphl/civic-portal/app/logging"
	businessflow "github.com/amirphl/civic-portal/business_flow"
	"github.com/amirphl/civic-portal/config"
	"github.com/amirphl/civic-portal/repository"
	"github.com/amirphl/civic-portal/repository/sqlitestore"
)

// environment opens the resources commands need. Tests replace the fields.
type environment struct {
	loadConfig    func() (*config.ProductionConfig, error)
	newLogger     func(cfg *config.ProductionConfig) (*zap.Logger, func(), error)
	migrate       func(cfg *config.ProductionConfig, logger *zap.Logger) error
	openAdminFlow func(cfg *config.ProductionConfig, logger *zap.Logger) (businessflow.SequenceAdminFlow, func(), error)
}

func defaultEnvironment() *environment {
	return &environment{
		loadConfig: config.LoadProductionConfig,
		newLogger: func(cfg *config.ProductionConfig) (*zap.Logger, func(), error) {
			logCfg := cfg.Logging
			logCfg.Output = "stderr"
			logCfg.Format = "console"
			return logging.New(logCfg)
		},
		migrate: func(cfg *config.ProductionConfig, logger *zap.Logger) error {
			db, err := repository.OpenDatabase(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer closeDatabase(db)
			return repository.AutoMigrate(db)
		},
		openAdminFlow: openAdminFlow,
	}
}

func openAdminFlow(cfg *config.ProductionConfig, logger *zap.Logger) (businessflow.SequenceAdminFlow, func(), error) {
	db, err := repository.OpenDatabase(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	jurisdictionRepo := repository.NewJurisdictionRepository(db)

	switch cfg.Sequence.Store {
	case config.SequenceStoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Sequence.SQLitePath), 0o750); err != nil {
			closeDatabase(db)
			return nil, nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		store, err := sqlitestore.Open(sqlitestore.Config{
			Path:     cfg.Sequence.SQLitePath,
			PoolSize: cfg.Sequence.SQLitePoolSize,
			Logger:   logger,
		})
		if err != nil {
			closeDatabase(db)
			return nil, nil, err
		}
		flow := businessflow.NewSequenceAdminFlow(store, jurisdictionRepo, nil, logger)
		return flow, func() {
			_ = store.Close()
			closeDatabase(db)
		}, nil
	default:
		flow := businessflow.NewSequenceAdminFlow(
			repository.NewSequenceCounterRepository(db),
			jurisdictionRepo,
			repository.NewTransactor(db),
			logger,
		)
		return flow, func() { closeDatabase(db) }, nil
	}
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
