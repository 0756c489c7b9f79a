// Package persistence selects and opens the configured Record Store backend.
package persistence

import (
	"context"
	"fmt"

	"github.com/frossokourou/exercise-tracker/internal/config"
	"github.com/frossokourou/exercise-tracker/internal/domain"
	"github.com/frossokourou/exercise-tracker/internal/persistence/memory"
	"github.com/frossokourou/exercise-tracker/internal/persistence/mongo"
	"github.com/frossokourou/exercise-tracker/internal/persistence/postgres"
	"github.com/frossokourou/exercise-tracker/internal/persistence/sqlite"
)

// Migrator is implemented by backends with a schema to create.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Open returns the store named by cfg.StoreDriver, migrated when
// cfg.AutoMigrate is set.
func Open(ctx context.Context, cfg config.Config) (domain.Store, error) {
	store, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := Migrate(ctx, store); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

// Migrate applies the backend schema if the store has one.
func Migrate(ctx context.Context, store domain.Store) error {
	m, ok := store.(Migrator)
	if !ok {
		return nil
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func open(ctx context.Context, cfg config.Config) (domain.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory, "":
		return memory.NewStore(), nil
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.PostgresURL)
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.DriverMongo:
		return mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
