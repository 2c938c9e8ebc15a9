package dsorm

import "errors"

// Validation failures are raised immediately and synchronously to the
// caller. There is no retry policy and no local recovery; database
// errors from the driver propagate as-is, wrapped with context.
var (
	// ErrUnknownColumn is returned when a statement references a column
	// that is not declared on the table.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnknownTable is returned when a table name is not registered.
	ErrUnknownTable = errors.New("unknown table")

	// ErrDuplicateColumn is returned when a table declares two columns
	// with the same name.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrDuplicateTable is returned when a table name is registered twice.
	ErrDuplicateTable = errors.New("duplicate table")

	// ErrMultiplePrimaryKeys is returned when more than one column is
	// flagged as the primary key. Composite keys are not supported.
	ErrMultiplePrimaryKeys = errors.New("multiple primary key columns")

	// ErrNoPrimaryKey is returned by operations that need a primary key
	// on a table that declares none.
	ErrNoPrimaryKey = errors.New("table has no primary key")

	// ErrEmptyValue is returned for declarations missing a required
	// field (table name, column name, column list).
	ErrEmptyValue = errors.New("missing required value")

	// ErrRowShape is returned when a multi-row insert resolves to
	// differing column sets across rows.
	ErrRowShape = errors.New("insert rows resolve to differing column sets")

	// ErrStatementConsumed is returned when a Statement is executed more
	// than once.
	ErrStatementConsumed = errors.New("statement already executed")
)
