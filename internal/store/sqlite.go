package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Options tune a SQLiteStore. The zero value is usable.
type Options struct {
	BusyTimeout time.Duration
	Logger      *slog.Logger
	// Now overrides the clock used for created_at/updated_at.
	Now func() time.Time
}

// SQLiteStore implements the Store interface using a local SQLite database.
// It holds a single connection, so every request is serialized through it.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and enables
// WAL mode and foreign keys. It does not migrate; run Migrator() first.
func NewSQLiteStore(dbPath string, opts Options) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection: pragmas are per connection and an in-memory database
	// only exists on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, logger: opts.Logger, now: opts.Now}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s, nil
}

// DB exposes the underlying handle for the migrator and tests.
func (s *SQLiteStore) DB() *sqlx.DB {
	return s.db
}

// Migrator returns a migrator over the built-in schema migrations.
func (s *SQLiteStore) Migrator() *Migrator {
	return NewMigrator(s.db, Migrations, s.logger)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) timestamp() time.Time {
	return s.now().UTC()
}

// inTx runs fn in a transaction and classifies any error under op.
func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
