package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrAssetNotFound is returned when no asset row matches the id.
	ErrAssetNotFound = errors.New("asset was not found")

	// ErrTransferNotFound is returned when no transfer row matches the id.
	ErrTransferNotFound = errors.New("transfer was not found")

	// ErrNoteNotFound is returned when no note row matches the id.
	ErrNoteNotFound = errors.New("note was not found")

	// ErrOutboxItemNotFound is returned when an outbox row addressed by id
	// no longer exists, usually because a newer intent for the same entity
	// and sync type replaced it.
	ErrOutboxItemNotFound = errors.New("outbox item was not found")

	// ErrPendingTransferExists is returned when an asset already has a
	// transfer waiting for verification.
	ErrPendingTransferExists = errors.New("asset already has a pending transfer")

	// ErrOwnershipChanged is returned when a verified transfer would flip an
	// asset that no longer belongs to the transfer's seller.
	ErrOwnershipChanged = errors.New("asset owner differs from transfer seller")

	// ErrUnsupportedDSN is returned when the DSN names neither a SQLite file
	// nor a PostgreSQL URL.
	ErrUnsupportedDSN = errors.New("unsupported database dsn")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a SQL query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the driver cannot start a
	// new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing an INSERT, UPDATE or
	// DELETE fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrUniqueViolation is returned when a write breaks a unique constraint.
	ErrUniqueViolation = errors.New("unique constraint violated")

	// ErrScanningRow is returned when scanning a single result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when iterating a multi-row result fails.
	ErrScanningRows = errors.New("failed to scan rows")

	// ErrEncodingColumn is returned when a JSON column cannot be encoded or
	// decoded.
	ErrEncodingColumn = errors.New("failed to encode json column")
)
