package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned by mutations that target an id the store does not
// hold. Reads report absence as a nil entity instead.
var ErrNotFound = errors.New("not found")

// ErrReadOnly is returned by mutations while the database schema could not be
// brought up to date.
var ErrReadOnly = errors.New("database is read-only until migrations succeed")

// ValidationError is a rejected input, detected before the store is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DataIntegrityError is a constraint violation reported by the database:
// a reference to a missing project or task, a CHECK or a UNIQUE failure.
type DataIntegrityError struct {
	Op  string
	Err error
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%s: data integrity: %v", e.Op, e.Err)
}

func (e *DataIntegrityError) Unwrap() error { return e.Err }

// StoreUnavailableError is a transport failure: the database is closed,
// locked, unreadable, or the call ran past its deadline.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// MigrationError names the schema migration that failed.
type MigrationError struct {
	Version int
	Name    string
	Err     error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration v%d (%s) failed: %v", e.Version, e.Name, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// IsValidation reports whether err (or any error in its chain) is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsDataIntegrity reports whether err (or any error in its chain) is a DataIntegrityError.
func IsDataIntegrity(err error) bool {
	var target *DataIntegrityError
	return errors.As(err, &target)
}

// IsStoreUnavailable reports whether err (or any error in its chain) is a StoreUnavailableError.
func IsStoreUnavailable(err error) bool {
	var target *StoreUnavailableError
	return errors.As(err, &target)
}

// IsMigration reports whether err (or any error in its chain) is a MigrationError.
func IsMigration(err error) bool {
	var target *MigrationError
	return errors.As(err, &target)
}

// classify maps a raw driver error onto the store taxonomy. Errors that are
// already classified pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || IsValidation(err) || IsDataIntegrity(err) || IsStoreUnavailable(err) {
		return err
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) && sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return &DataIntegrityError{Op: op, Err: err}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &StoreUnavailableError{Op: op, Err: err}
}
