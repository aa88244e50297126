package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/nhle/taskdown/internal/store"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewUnmigratedStore creates an in-memory SQLiteStore with no schema.
// It automatically closes the store when the test completes.
func NewUnmigratedStore(t testing.TB, opts store.Options) *store.SQLiteStore {
	t.Helper()

	if opts.Logger == nil {
		opts.Logger = DiscardLogger()
	}
	s, err := store.NewSQLiteStore(":memory:", opts)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
func NewTestStore(t testing.TB) *store.SQLiteStore {
	t.Helper()
	return NewTestStoreWith(t, store.Options{})
}

// NewTestStoreWith is NewTestStore with custom options, e.g. a fake clock.
func NewTestStoreWith(t testing.TB, opts store.Options) *store.SQLiteStore {
	t.Helper()

	s := NewUnmigratedStore(t, opts)
	if _, err := s.Migrator().Run(context.Background()); err != nil {
		t.Fatalf("migrating test store: %v", err)
	}
	return s
}
