package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/config"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/migrations"
)

// Dialect selects the SQL flavour of the local store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// DialectFromDSN picks PostgreSQL for postgres:// and postgresql:// URLs and
// SQLite for everything else.
func DialectFromDSN(dsn string) Dialect {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

func (d Dialect) placeholder() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

func (d Dialect) gooseDialect() goose.Dialect {
	if d == DialectPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

// DB is the local store connection shared by all repositories.
type DB struct {
	*sql.DB
	dialect            Dialect
	builder            sq.StatementBuilderType
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

func newDB(conn *sql.DB, dialect Dialect, classifier ErrorClassificator, log *logger.Logger) *DB {
	return &DB{
		DB:                 conn,
		dialect:            dialect,
		builder:            sq.StatementBuilder.PlaceholderFormat(dialect.placeholder()),
		errorClassificator: classifier,
		logger:             log,
	}
}

// NewConnect opens the local store selected by the DSN.
func NewConnect(ctx context.Context, cfg config.ClientDB, log *logger.Logger) (*DB, error) {
	if cfg.DSN == "" {
		return nil, ErrUnsupportedDSN
	}

	switch DialectFromDSN(cfg.DSN) {
	case DialectPostgres:
		return NewConnectPostgres(ctx, cfg, log)
	default:
		return NewConnectSQLite(ctx, cfg, log)
	}
}

// Dialect returns the SQL dialect of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Migrate applies the embedded schema migrations of the connection dialect.
func (db *DB) Migrate(ctx context.Context) error {
	applied, err := migrations.Migrate(ctx, db.DB, db.dialect.gooseDialect())
	if err != nil {
		db.logger.Err(err).Str("func", "DB.Migrate").Str("dialect", string(db.dialect)).Msg("migration failed")
		return err
	}

	db.logger.Info().Str("func", "DB.Migrate").Ints64("applied", applied).Msg("migrations applied")
	return nil
}

type txCtxKey struct{}

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction bound to ctx by WithinTx, or the pool.
func (db *DB) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txCtxKey{}).(*sql.Tx); ok {
		return tx
	}
	return db.DB
}

// WithinTx runs fn in one transaction. Repository calls made with the
// context passed to fn join the transaction. Nested calls reuse the outer
// transaction. The transaction is rolled back when fn returns an error.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txCtxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "DB.WithinTx").Msg("failed to begin transaction")
		return db.classify(ErrBeginningTransaction, err)
	}

	if err := fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Err(rbErr).Str("func", "DB.WithinTx").Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).Str("func", "DB.WithinTx").Msg("failed to commit transaction")
		return db.classify(ErrCommitingTransaction, err)
	}

	return nil
}

// classify wraps a driver error with its sentinel. Errors that make the
// store unusable become taxonomy storage errors so the sync engine halts.
func (db *DB) classify(sentinel, err error) error {
	wrapped := fmt.Errorf("%w: %w", sentinel, err)

	if db.errorClassificator == nil {
		return wrapped
	}

	switch db.errorClassificator.Classify(err) {
	case StorageFull:
		return app.Wrap(app.ReasonStorageFull, wrapped, "local store")
	case StorageCorrupted:
		return app.Wrap(app.ReasonCorruption, wrapped, "local store")
	case UniqueViolation:
		return fmt.Errorf("%w: %w", ErrUniqueViolation, wrapped)
	}

	return wrapped
}

// exec builds and runs a mutating statement and returns the affected rows.
func (db *DB) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := db.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, db.classify(ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, db.classify(ErrExecutingStatement, err)
	}

	return affected, nil
}

// query builds and runs a SELECT.
func (db *DB) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.classify(ErrExecutingQuery, err)
	}
	return rows, nil
}

// queryRow builds and runs a single-row SELECT.
func (db *DB) queryRow(ctx context.Context, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return db.conn(ctx).QueryRowContext(ctx, query, args...), nil
}
