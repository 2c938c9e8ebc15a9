package dsorm

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SetupHook runs during Init, before pragmas are applied and schema
// objects are created. Hooks run in registration order.
type SetupHook func(ctx context.Context, db *DB) error

// Option configures a DB handle during Open.
type Option func(*DB) error

// WithTable registers a table declaration with the handle.
func WithTable(t *Table) Option {
	return func(db *DB) error { return db.Register(t) }
}

// WithPragma registers a pragma applied during Init.
func WithPragma(name, value string) Option {
	return func(db *DB) error {
		p := Pragma{Name: name, Value: value}
		if _, err := p.SQL(); err != nil {
			return err
		}
		db.pragmas = append(db.pragmas, p)
		return nil
	}
}

// WithSetupHook appends a hook run at the start of Init.
func WithSetupHook(h SetupHook) Option {
	return func(db *DB) error {
		db.hooks = append(db.hooks, h)
		return nil
	}
}

// WithLogger replaces the default logger. Statements are logged at
// debug level.
func WithLogger(log logrus.FieldLogger) Option {
	return func(db *DB) error {
		db.log = log
		return nil
	}
}

type idKey struct {
	table  string
	column string
	value  string
}

// DB owns the connection to one embedded database file along with the
// registry of declared tables, pragmas, and setup hooks. It replaces
// any notion of a process-global registry or implicitly opened default
// connection: callers create a handle explicitly with Open and tear it
// down with Close.
type DB struct {
	sdb  *sql.DB
	path string

	tables map[string]*Table
	order  []string

	pragmas []Pragma
	hooks   []SetupHook

	log logrus.FieldLogger
	ids map[idKey]int64
}

// Open opens (or creates) the database at path and applies options. Use
// ":memory:" for an in-memory database. The connection is verified with
// a ping before the handle is returned.
func Open(path string, opts ...Option) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path: %w", ErrEmptyValue)
	}

	sdb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: callers are synchronous, and a :memory: database
	// would otherwise be a different empty database on every pooled
	// connection.
	sdb.SetMaxOpenConns(1)
	if err := sdb.Ping(); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		sdb:    sdb,
		path:   path,
		tables: make(map[string]*Table),
		log:    logrus.StandardLogger(),
		ids:    make(map[idKey]int64),
	}
	for _, opt := range opts {
		if err := opt(db); err != nil {
			sdb.Close()
			return nil, err
		}
	}
	return db, nil
}

// Path returns the path the handle was opened with.
func (db *DB) Path() string { return db.path }

// Register adds a table declaration to the handle's registry. Tables
// are created by Init in registration order.
func (db *DB) Register(t *Table) error {
	if t == nil {
		return fmt.Errorf("table: %w", ErrEmptyValue)
	}
	if _, ok := db.tables[t.Name]; ok {
		return fmt.Errorf("table %q: %w", t.Name, ErrDuplicateTable)
	}
	db.tables[t.Name] = t
	db.order = append(db.order, t.Name)
	return nil
}

// Table returns a registered table by name.
func (db *DB) Table(name string) (*Table, error) {
	t, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, ErrUnknownTable)
	}
	return t, nil
}

// Tables returns registered tables in registration order.
func (db *DB) Tables() []*Table {
	out := make([]*Table, 0, len(db.order))
	for _, name := range db.order {
		out = append(out, db.tables[name])
	}
	return out
}

// Init runs setup hooks, applies pragmas, creates registered tables and
// indexes in registration order, and inserts seed rows. It is safe to
// call on an already-initialized file: creation statements use IF NOT
// EXISTS and seed rows are inserted with OR REPLACE.
func (db *DB) Init(ctx context.Context) error {
	for _, h := range db.hooks {
		if err := h(ctx, db); err != nil {
			return fmt.Errorf("setup hook failed: %w", err)
		}
	}

	for _, p := range db.pragmas {
		stmt, err := p.SQL()
		if err != nil {
			return err
		}
		db.log.WithField("sql", stmt).Debug("applying pragma")
		if _, err := db.sdb.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply pragma %s: %w", p.Name, err)
		}
	}

	for _, t := range db.Tables() {
		ddl, err := t.CreateSQL()
		if err != nil {
			return err
		}
		db.log.WithField("sql", ddl).Debug("creating table")
		if _, err := db.sdb.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.Name, err)
		}
		for _, ix := range t.IndexSQL() {
			db.log.WithField("sql", ix).Debug("creating index")
			if _, err := db.sdb.ExecContext(ctx, ix); err != nil {
				return fmt.Errorf("failed to create index on %s: %w", t.Name, err)
			}
		}
		if len(t.Seed) > 0 {
			stmt, err := t.InsertOrReplace(t.Seed...)
			if err != nil {
				return fmt.Errorf("failed to build seed insert for %s: %w", t.Name, err)
			}
			if _, err := db.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to seed table %s: %w", t.Name, err)
			}
		}
	}
	return nil
}

// Exec runs a non-query statement and returns the number of rows
// affected. The statement is consumed.
func (db *DB) Exec(ctx context.Context, stmt *Statement) (int64, error) {
	if err := stmt.consume(); err != nil {
		return 0, err
	}
	db.log.WithFields(logrus.Fields{"sql": stmt.SQL, "args": len(stmt.Args)}).Debug("exec")

	res, err := db.sdb.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

// Query runs a statement and returns every result row as a column-name
// to value mapping. Columns with declared codecs are decoded; anything
// else is returned as scanned. The statement is consumed.
func (db *DB) Query(ctx context.Context, stmt *Statement) ([]Row, error) {
	if err := stmt.consume(); err != nil {
		return nil, err
	}
	db.log.WithFields(logrus.Fields{"sql": stmt.SQL, "args": len(stmt.Args)}).Debug("query")

	rows, err := db.sdb.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, name := range cols {
			v := vals[i]
			if codec, ok := stmt.decoders[name]; ok {
				decoded, err := codec.Decode(v)
				if err != nil {
					return nil, fmt.Errorf("column %q: %w", name, err)
				}
				v = decoded
			}
			row[name] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// ID looks up the primary-key value of the single row whose column
// equals value. The result is cached per handle, which suits reference
// tables whose rows never change. The boolean reports whether exactly
// one row matched.
func (db *DB) ID(ctx context.Context, table, column string, value any) (int64, bool, error) {
	key := idKey{table: table, column: column, value: fmt.Sprint(value)}
	if id, ok := db.ids[key]; ok {
		return id, true, nil
	}

	t, err := db.Table(table)
	if err != nil {
		return 0, false, err
	}
	pk, ok := t.PrimaryKey()
	if !ok {
		return 0, false, fmt.Errorf("table %q: %w", table, ErrNoPrimaryKey)
	}

	stmt, err := t.Select(Where{Eq(column, value)}, pk.Name)
	if err != nil {
		return 0, false, err
	}
	rows, err := db.Query(ctx, stmt)
	if err != nil {
		return 0, false, err
	}
	if len(rows) != 1 {
		return 0, false, nil
	}
	id, ok := rows[0][pk.Name].(int64)
	if !ok {
		return 0, false, fmt.Errorf("table %q primary key %q is not an integer", table, pk.Name)
	}
	db.ids[key] = id
	return id, true, nil
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.sdb.Close()
}
