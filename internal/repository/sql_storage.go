package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return DialectPostgres, nil
	case "sqlite":
		return DialectSQLite, nil
	}
	return 0, fmt.Errorf("unsupported database driver %q", driver)
}

// SQLStorage keeps every key in one table; values are JSON text.
type SQLStorage struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewSQLStorage(db *sql.DB, dialect Dialect) *SQLStorage {
	return &SQLStorage{db: db, dialect: dialect, now: time.Now}
}

func (s *SQLStorage) GetDB() *sql.DB {
	return s.db
}

func (s *SQLStorage) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS kv_storage (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			version    BIGINT NOT NULL,
			deleted    BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("migrate kv_storage: %w", err)
	}
	return nil
}

func (s *SQLStorage) Get(ctx context.Context, key string) (Record, error) {
	query := `SELECT value, version FROM kv_storage WHERE key = $1 AND NOT deleted`

	var rec Record
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(query), key).Scan(&value, &rec.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get %s: %w", key, err)
	}
	rec.Value = []byte(value)
	return rec, nil
}

func (s *SQLStorage) Put(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error) {
	var query string
	args := []interface{}{key, string(value), s.now().UTC()}

	switch {
	case expectedVersion == AnyVersion:
		query = `
			INSERT INTO kv_storage (key, value, version, updated_at)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (key) DO UPDATE
			SET value = excluded.value, version = kv_storage.version + 1, deleted = FALSE, updated_at = excluded.updated_at
			RETURNING version
		`
	case expectedVersion == 0:
		// Only a deleted row may be revived; its version sequence continues.
		query = `
			INSERT INTO kv_storage (key, value, version, updated_at)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (key) DO UPDATE
			SET value = excluded.value, version = kv_storage.version + 1, deleted = FALSE, updated_at = excluded.updated_at
			WHERE kv_storage.deleted
			RETURNING version
		`
	default:
		query = `
			UPDATE kv_storage SET value = $2, version = version + 1, updated_at = $3
			WHERE key = $1 AND version = $4 AND NOT deleted
			RETURNING version
		`
		args = append(args, expectedVersion)
	}

	var version int64
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrVersionConflict
		}
		return 0, fmt.Errorf("put %s: %w", key, err)
	}
	return version, nil
}

func (s *SQLStorage) Delete(ctx context.Context, key string) error {
	// Rows are kept as tombstones so versions never repeat.
	query := `UPDATE kv_storage SET value = '', deleted = TRUE, updated_at = $2 WHERE key = $1 AND NOT deleted`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), key, s.now().UTC()); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites $N placeholders into SQLite's ?N form.
func (s *SQLStorage) rebind(query string) string {
	if s.dialect != DialectSQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?$1")
}
