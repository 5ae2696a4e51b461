// Package storage opens the submission store named by the database config.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/domain/repositories"
	"github.com/vsinha/packplan/pkg/infrastructure/config"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/postgres"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/sqlite"
)

// Open returns the configured store and a function releasing its connections
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (repositories.SubmissionRepository, func(), error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Driver {
	case "", "memory":
		return memory.NewSubmissionRepository(), func() {}, nil

	case "sqlite":
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		log.Info("sqlite store opened", zap.String("path", cfg.Path))
		return sqlite.NewSubmissionRepository(db, log), closeFn, nil

	case "postgres":
		if cfg.AutoMigrate {
			if err := postgres.Migrate(cfg.DSN); err != nil {
				return nil, nil, err
			}
			log.Info("postgres migrations applied")
		}
		pool, err := postgres.Connect(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		log.Info("postgres store connected", zap.Int32("max_conns", pool.Config().MaxConns))
		return postgres.NewSubmissionRepository(pool, log), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}
