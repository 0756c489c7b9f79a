package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frossokourou/exercise-tracker/internal/config"
	"github.com/frossokourou/exercise-tracker/internal/domain"
	"github.com/frossokourou/exercise-tracker/internal/persistence/memory"
	"github.com/frossokourou/exercise-tracker/internal/persistence/sqlite"
)

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), config.Config{StoreDriver: config.DriverMemory, AutoMigrate: true})
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &memory.Store{}, store)
}

func TestOpenSQLiteMigrates(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.Config{
		StoreDriver: config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "exercise.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &sqlite.Store{}, store)

	require.NoError(t, store.Insert(ctx, domain.User{ID: "u1", Username: "alice"}))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Config{StoreDriver: "cassandra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cassandra")
}
