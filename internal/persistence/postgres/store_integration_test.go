//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/frossokourou/exercise-tracker/internal/domain"
)

func newContainerStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("exercise"),
		postgrescontainer.WithUsername("exercise"),
		postgrescontainer.WithPassword("exercise"),
		postgrescontainer.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrations must be idempotent")
	return store
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newContainerStore(t)

	alice := domain.User{ID: uuid.NewString(), Username: "alice"}
	require.NoError(t, store.Insert(ctx, alice))
	require.NoError(t, store.Insert(ctx, domain.User{ID: uuid.NewString(), Username: "Bob"}))

	err := store.Insert(ctx, domain.User{ID: uuid.NewString(), Username: "alice"})
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	missing, err := store.FindByID(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Nil(t, missing)

	dates := []time.Time{
		time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		require.NoError(t, store.AppendExercise(ctx, alice.ID, domain.Exercise{Description: "run", Duration: 30, Date: d}))
	}
	require.ErrorIs(t, store.AppendExercise(ctx, "nope", domain.Exercise{Description: "run", Duration: 1, Date: dates[0]}), domain.ErrUserNotFound)

	got, err := store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Exercises, 2)
	require.True(t, got.Exercises[0].Date.Equal(dates[0]), "insertion order must be preserved")

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "Bob", users[0].Username, "byte order sorts capitals first")
}

func TestStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := newContainerStore(t)

	user := domain.User{ID: uuid.NewString(), Username: "racer"}
	require.NoError(t, store.Insert(ctx, user))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.AppendExercise(ctx, user.ID, domain.Exercise{Description: "lap", Duration: 1, Date: time.Now()})
		}()
	}
	wg.Wait()

	got, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got.Exercises, n)
}
