package persistence_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskmate/internal/chores/infrastructure/persistence"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/migrations"
)

func setupSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db))
	return db
}

func TestSQLiteTaskRepository_Contract(t *testing.T) {
	exerciseRepository(t, persistence.NewSQLiteTaskRepository(setupSQLiteDB(t)))
}

func TestSQLiteTaskRepository_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewSQLiteTaskRepository(setupSQLiteDB(t))

	tasks := sampleTasks()
	tasks[0].ID, tasks[1].ID = "z-last-alphabetically", "a-first-alphabetically"
	require.NoError(t, repo.Save(ctx, tasks))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "z-last-alphabetically", loaded[0].ID)
	assert.Equal(t, "a-first-alphabetically", loaded[1].ID)
}

func TestSQLiteTaskRepository_DuplicateIDRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewSQLiteTaskRepository(setupSQLiteDB(t))

	require.NoError(t, repo.Save(ctx, sampleTasks()))

	dup := sampleTasks()
	dup[1].ID = dup[0].ID
	assert.Error(t, repo.Save(ctx, dup))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2, "failed save leaves previous state")
}
