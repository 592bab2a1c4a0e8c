package cmd

import (
	"context"
	"fmt"

	"bibsync/core/config"
	"bibsync/core/database"
	"bibsync/core/logger"
	"bibsync/core/storage"
	"bibsync/feature/bibtex"
	"bibsync/feature/changes"
	"bibsync/feature/history"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	service *changes.Service
}

// newApp loads configuration and wires storage, history and the change service.
// Object storage and the history database are optional.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	var client storage.Client
	if c, err := storage.NewClient(cfg.Storage); err != nil {
		l.Warn("Object storage disabled", zap.Error(err))
	} else {
		client = c
	}

	var db *gorm.DB
	if conn, err := database.Connect(cfg.Database); err != nil {
		l.Warn("Optional database connection failed, scan history disabled", zap.Error(err))
	} else {
		db = conn
	}

	repo := history.NewRepository(db, l, history.WithAutoMigrate(cfg.Database.AutoMigrate))
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare scan history: %w", err)
	}

	store := bibtex.NewStore(client, l,
		bibtex.WithRegion(cfg.Storage.Region),
		bibtex.WithBucket(cfg.Storage.Bucket),
	)

	return &app{
		cfg:     cfg,
		log:     l,
		service: changes.NewService(store, repo, cfg.Scan, l),
	}, nil
}

// close waits for background baseline writes and flushes the logger.
func (a *app) close() {
	a.service.Wait()
	_ = a.log.Sync()
}
