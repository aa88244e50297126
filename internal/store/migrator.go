package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskdown/internal/model"
)

const ledgerDDL = `CREATE TABLE IF NOT EXISTS migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at DATETIME NOT NULL
)`

// Migrator brings a database schema up to the latest MigrationDef.
type Migrator struct {
	db     *sqlx.DB
	defs   []MigrationDef
	logger *slog.Logger
	now    func() time.Time
}

// NewMigrator returns a migrator for defs. The slice is copied and sorted by
// version; duplicate versions are rejected by Run.
func NewMigrator(db *sqlx.DB, defs []MigrationDef, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	sorted := make([]MigrationDef, len(defs))
	copy(sorted, defs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return &Migrator{
		db:     db,
		defs:   sorted,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CurrentVersion returns the highest version recorded in the ledger, or 0 when
// the ledger table does not exist yet.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	exists, err := m.ledgerExists(ctx)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	var version int
	if err := m.db.GetContext(ctx, &version, "SELECT COALESCE(MAX(version), 0) FROM migrations"); err != nil {
		return 0, classify("reading schema version", err)
	}
	return version, nil
}

func (m *Migrator) ledgerExists(ctx context.Context) (bool, error) {
	var count int
	err := m.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='migrations'")
	if err != nil {
		return false, classify("checking migrations table", err)
	}
	return count > 0, nil
}

// Pending returns the definitions newer than the current version, ascending.
func (m *Migrator) Pending(ctx context.Context) ([]MigrationDef, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	var pending []MigrationDef
	for _, d := range m.defs {
		if d.Version > current {
			pending = append(pending, d)
		}
	}
	return pending, nil
}

// Run applies every pending migration in ascending version order and returns
// the versions it applied. It stops at the first failure: migrations applied
// before it stay recorded, the failing one leaves no ledger row and none of
// its statements, and the error is a *MigrationError.
func (m *Migrator) Run(ctx context.Context) ([]int, error) {
	seen := make(map[int]bool, len(m.defs))
	for _, d := range m.defs {
		if seen[d.Version] {
			return nil, fmt.Errorf("duplicate migration version %d", d.Version)
		}
		seen[d.Version] = true
	}

	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	applied := []int{}
	for _, d := range pending {
		if err := m.apply(ctx, d); err != nil {
			m.logger.Error("migration failed",
				"version", d.Version, "name", d.Name, "error", err)
			return applied, &MigrationError{Version: d.Version, Name: d.Name, Err: err}
		}
		m.logger.Info("migration applied", "version", d.Version, "name", d.Name)
		applied = append(applied, d.Version)
	}
	return applied, nil
}

func (m *Migrator) apply(ctx context.Context, d MigrationDef) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range d.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}

	if _, err := tx.ExecContext(ctx, ledgerDDL); err != nil {
		return fmt.Errorf("ensuring migrations table: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO migrations (version, name, applied_at) VALUES (?, ?, ?)",
		d.Version, d.Name, m.now(),
	); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	return tx.Commit()
}

// Status reports the schema version, how many migrations are pending and the
// applied history, newest first. A database without a ledger reports version
// 0 and an empty history.
func (m *Migrator) Status(ctx context.Context) (model.MigrationStatus, error) {
	status := model.MigrationStatus{Applied: []model.Migration{}}

	exists, err := m.ledgerExists(ctx)
	if err != nil {
		return status, err
	}
	if exists {
		err := m.db.SelectContext(ctx, &status.Applied,
			"SELECT version, name, applied_at FROM migrations ORDER BY version DESC")
		if err != nil {
			return status, classify("reading migration history", err)
		}
	}
	if len(status.Applied) > 0 {
		status.CurrentVersion = status.Applied[0].Version
	}
	for _, d := range m.defs {
		if d.Version > status.CurrentVersion {
			status.PendingCount++
		}
	}
	return status, nil
}
