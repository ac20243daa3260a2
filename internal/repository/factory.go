package repository

import (
	"context"
	"fmt"

	"github.com/bassista/go_courses/internal/config"
	"github.com/bassista/go_courses/internal/logger"
)

// NewFromConfig creates a Repository based on the configured driver.
// "memory" keeps everything in process; "postgres" (default) opens a pool and,
// when enabled, applies the schema.
func NewFromConfig(ctx context.Context, cfg config.DatabaseConfig) (Repository, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.WithComponent("repository").Warn("using in-memory repository, data is lost on restart")
		return NewMemoryRepository(), nil
	case config.DriverPostgres, "":
		repo, err := NewPostgresRepository(ctx, PoolOptions{
			DSN:      cfg.DSN(),
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := repo.Migrate(ctx); err != nil {
				repo.Close()
				return nil, err
			}
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s (supported: %s, %s)", cfg.Driver, config.DriverPostgres, config.DriverMemory)
	}
}
