package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskdown/internal/store"
	"github.com/nhle/taskdown/tests/testutil"
)

func tableExists(t *testing.T, s *store.SQLiteStore, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, s.DB().Get(&n,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name))
	return n > 0
}

func TestMigratorFreshDatabase(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewUnmigratedStore(t, store.Options{})
	m := s.Migrator()

	version, err := m.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	applied, err := m.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, applied)

	version, err = m.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, version)

	for _, table := range []string{"migrations", "projects", "tasks", "reminders"} {
		assert.True(t, tableExists(t, s, table), table)
	}
}

func TestMigratorIdempotent(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	applied, err := s.Migrator().Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var rows int
	require.NoError(t, s.DB().Get(&rows, "SELECT COUNT(*) FROM migrations"))
	assert.Equal(t, len(store.Migrations), rows)
}

func TestMigratorAppliesOnlyNewer(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewUnmigratedStore(t, store.Options{})

	applied, err := store.NewMigrator(s.DB(), store.Migrations[:1], testutil.DiscardLogger()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, applied)

	applied, err = s.Migrator().Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, applied)
}

func TestMigratorStopsAtFailure(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewUnmigratedStore(t, store.Options{})

	defs := []store.MigrationDef{
		{Version: 3, Name: "third", Statements: []string{"CREATE TABLE c (x TEXT)"}},
		{Version: 1, Name: "first", Statements: []string{"CREATE TABLE a (x TEXT)"}},
		{Version: 2, Name: "broken", Statements: []string{
			"CREATE TABLE b (x TEXT)",
			"THIS IS NOT SQL",
		}},
	}
	m := store.NewMigrator(s.DB(), defs, testutil.DiscardLogger())

	applied, err := m.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, []int{1}, applied)

	var migErr *store.MigrationError
	require.True(t, errors.As(err, &migErr))
	assert.Equal(t, 2, migErr.Version)
	assert.Equal(t, "broken", migErr.Name)
	assert.True(t, store.IsMigration(err))

	assert.True(t, tableExists(t, s, "a"))
	assert.False(t, tableExists(t, s, "b"), "failed migration must not leave partial schema")
	assert.False(t, tableExists(t, s, "c"), "later migrations must not run")

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.CurrentVersion)
	assert.Equal(t, 2, status.PendingCount)
	require.Len(t, status.Applied, 1)
	assert.Equal(t, "first", status.Applied[0].Name)
}

func TestMigratorStatusWithoutLedger(t *testing.T) {
	s := testutil.NewUnmigratedStore(t, store.Options{})

	status, err := s.Migrator().Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, status.CurrentVersion)
	assert.Equal(t, len(store.Migrations), status.PendingCount)
	assert.Empty(t, status.Applied)
}

func TestMigratorStatusNewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)

	status, err := s.Migrator().Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, status.CurrentVersion)
	assert.Zero(t, status.PendingCount)
	require.Len(t, status.Applied, 3)
	assert.Equal(t, 3, status.Applied[0].Version)
	assert.Equal(t, "initial", status.Applied[2].Name)
	assert.False(t, status.Applied[2].AppliedAt.IsZero())
}

func TestMigratorRejectsDuplicateVersions(t *testing.T) {
	s := testutil.NewUnmigratedStore(t, store.Options{})
	defs := []store.MigrationDef{
		{Version: 1, Name: "a", Statements: []string{"CREATE TABLE a (x TEXT)"}},
		{Version: 1, Name: "b", Statements: []string{"CREATE TABLE b (x TEXT)"}},
	}

	_, err := store.NewMigrator(s.DB(), defs, nil).Run(context.Background())
	assert.Error(t, err)
	assert.False(t, tableExists(t, s, "a"))
}
