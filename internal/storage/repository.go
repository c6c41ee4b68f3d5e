// Package storage persists agency entities and transactions in SQLite and
// exposes the aggregation queries the dashboard and reports are built on.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when an operation targets a row that no
	// longer exists. Callers typically treat it as a no-op.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned on unique-name violations, e.g. when a
	// partner with the same name already exists.
	ErrDuplicateName = errors.New("name already exists")
)

// Repository wraps a SQLite database. One instance is shared by the whole
// process; SQLite serializes writes internally.
type Repository struct {
	db *sql.DB
}

// NewRepository runs migrations and opens the database at dbPath.
func NewRepository(dbPath string) (*Repository, error) {
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// nullableID adapts an optional foreign key for SQL parameters.
func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func scanNullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// requireAffected maps a zero-rows-affected result to ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
