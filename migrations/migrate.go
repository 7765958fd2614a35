// Package migrations embeds the schema of the local store, one directory per
// SQL dialect, and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var embedMigrations embed.FS

// ErrNilDB is returned when Migrate is called without a connection.
var ErrNilDB = errors.New("db is nil")

// ErrUnsupportedDialect is returned for dialects without embedded migrations.
var ErrUnsupportedDialect = errors.New("unsupported migration dialect")

var dialectDirs = map[goose.Dialect]string{
	goose.DialectSQLite3:  "sqlite",
	goose.DialectPostgres: "postgres",
}

// Source returns the migration files of dialect.
func Source(dialect goose.Dialect) (fs.FS, error) {
	dir, ok := dialectDirs[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}
	return fs.Sub(embedMigrations, dir)
}

// Migrate applies all pending migrations of dialect to db and returns the
// applied versions.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect) ([]int64, error) {
	if db == nil {
		return nil, ErrNilDB
	}

	source, err := Source(dialect)
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(dialect, db, source)
	if err != nil {
		return nil, fmt.Errorf("migration error creating provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}
