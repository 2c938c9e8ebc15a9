package dsorm

import (
	"fmt"
	"strings"
)

// ForeignKey declares a naive foreign-key constraint. It has no
// lifecycle of its own; it is consumed only when CREATE TABLE text is
// generated.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

func (fk ForeignKey) ddl() string {
	return fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdent(fk.Column), quoteIdent(fk.RefTable), quoteIdent(fk.RefColumn))
}

// Index declares a single index over one or more columns. Name is
// derived from the table and first column when empty.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Table is a named, ordered collection of columns plus optional
// constraint, index, and seed-row declarations. Tables are validated by
// NewTable and read-only afterwards.
type Table struct {
	Name        string
	Columns     []*Column
	ForeignKeys []ForeignKey
	Indexes     []Index

	// Seed rows are inserted (with OR REPLACE) when the schema is
	// initialized, making the table usable as reference data.
	Seed []Row

	byName map[string]*Column
}

// TableOption attaches constraints, indexes, or seed rows to a table
// under construction.
type TableOption func(*Table)

// WithForeignKey declares that column references refTable(refColumn).
func WithForeignKey(column, refTable, refColumn string) TableOption {
	return func(t *Table) {
		t.ForeignKeys = append(t.ForeignKeys, ForeignKey{Column: column, RefTable: refTable, RefColumn: refColumn})
	}
}

// WithIndex declares an index over the given columns.
func WithIndex(unique bool, columns ...string) TableOption {
	return func(t *Table) {
		t.Indexes = append(t.Indexes, Index{Columns: columns, Unique: unique})
	}
}

// WithIndexes declares fully-specified indexes, names included.
func WithIndexes(indexes ...Index) TableOption {
	return func(t *Table) {
		t.Indexes = append(t.Indexes, indexes...)
	}
}

// WithSeed declares rows inserted at schema initialization.
func WithSeed(rows ...Row) TableOption {
	return func(t *Table) {
		t.Seed = append(t.Seed, rows...)
	}
}

// NewTable validates the declaration and returns an immutable table.
// Column names must be unique, at most one column may be the primary
// key, and foreign-key and index column references must be declared
// columns.
func NewTable(name string, columns []*Column, opts ...TableOption) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table name: %w", ErrEmptyValue)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q has no columns: %w", name, ErrEmptyValue)
	}

	t := &Table{
		Name:    name,
		Columns: columns,
		byName:  make(map[string]*Column, len(columns)),
	}

	pkeys := 0
	for _, c := range columns {
		if err := c.resolve(); err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		if _, ok := t.byName[c.Name]; ok {
			return nil, fmt.Errorf("table %q column %q: %w", name, c.Name, ErrDuplicateColumn)
		}
		t.byName[c.Name] = c
		if c.PrimaryKey {
			pkeys++
		}
	}
	if pkeys > 1 {
		return nil, fmt.Errorf("table %q: %w", name, ErrMultiplePrimaryKeys)
	}

	for _, opt := range opts {
		opt(t)
	}

	for _, fk := range t.ForeignKeys {
		if _, err := t.Column(fk.Column); err != nil {
			return nil, fmt.Errorf("table %q foreign key: %w", name, err)
		}
	}
	for i := range t.Indexes {
		ix := &t.Indexes[i]
		if len(ix.Columns) == 0 {
			return nil, fmt.Errorf("table %q index has no columns: %w", name, ErrEmptyValue)
		}
		for _, col := range ix.Columns {
			if _, err := t.Column(col); err != nil {
				return nil, fmt.Errorf("table %q index: %w", name, err)
			}
		}
		if ix.Name == "" {
			ix.Name = fmt.Sprintf("%s_%s_idx", t.Name, ix.Columns[0])
		}
	}

	return t, nil
}

// MustTable is NewTable for declaration-time schemas; it panics on
// invalid declarations.
func MustTable(name string, columns []*Column, opts ...TableOption) *Table {
	t, err := NewTable(name, columns, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// LookupTable declares an id/name reference table seeded with the given
// names. Ids are assigned by position starting at 1 so callers can rely
// on predictable keys.
func LookupTable(name string, values ...string) *Table {
	seed := make([]Row, 0, len(values))
	for i, v := range values {
		seed = append(seed, Row{"id": int64(i + 1), "name": v})
	}
	return MustTable(name, []*Column{
		{Name: "id", Type: Integer, PrimaryKey: true},
		{Name: "name", Type: Text, NotNull: true, Unique: true},
	}, WithSeed(seed...))
}

// Column returns the declared column with the given name.
func (t *Table) Column(name string) (*Column, error) {
	c, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("table %q column %q: %w", t.Name, name, ErrUnknownColumn)
	}
	return c, nil
}

// PrimaryKey returns the primary-key column, if one is declared.
func (t *Table) PrimaryKey() (*Column, bool) {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c, true
		}
	}
	return nil, false
}

// CreateSQL returns the CREATE TABLE IF NOT EXISTS text for the
// declaration: columns in declaration order, followed by foreign-key
// clauses.
func (t *Table) CreateSQL() (string, error) {
	defs := make([]string, 0, len(t.Columns)+len(t.ForeignKeys))
	for _, c := range t.Columns {
		d, err := c.ddl()
		if err != nil {
			return "", fmt.Errorf("table %q: %w", t.Name, err)
		}
		defs = append(defs, d)
	}
	for _, fk := range t.ForeignKeys {
		defs = append(defs, fk.ddl())
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(t.Name), strings.Join(defs, ", ")), nil
}

// IndexSQL returns one CREATE INDEX IF NOT EXISTS statement per
// declared index.
func (t *Table) IndexSQL() []string {
	out := make([]string, 0, len(t.Indexes))
	for _, ix := range t.Indexes {
		cols := make([]string, 0, len(ix.Columns))
		for _, c := range ix.Columns {
			cols = append(cols, quoteIdent(c))
		}
		unique := ""
		if ix.Unique {
			unique = "UNIQUE "
		}
		out = append(out, fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
			unique, quoteIdent(ix.Name), quoteIdent(t.Name), strings.Join(cols, ", ")))
	}
	return out
}

// Insert builds a multi-row INSERT. The column set is the union of the
// provided keys and columns with defaults, emitted in declaration
// order; every row must resolve to the same set. Calling Insert with no
// rows produces an INSERT ... DEFAULT VALUES statement.
func (t *Table) Insert(rows ...Row) (*Statement, error) {
	return t.insert(false, rows)
}

// InsertOrReplace is Insert with conflict rows replaced.
func (t *Table) InsertOrReplace(rows ...Row) (*Statement, error) {
	return t.insert(true, rows)
}

func (t *Table) insert(replace bool, rows []Row) (*Statement, error) {
	verb := "INSERT"
	if replace {
		verb = "INSERT OR REPLACE"
	}

	if len(rows) == 0 {
		return &Statement{SQL: fmt.Sprintf("%s INTO %s DEFAULT VALUES", verb, quoteIdent(t.Name))}, nil
	}

	prepared := make([]Row, 0, len(rows))
	for _, row := range rows {
		p, err := t.prepareRow(row)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, p)
	}

	// Column order follows the declaration; the first row fixes the set.
	var cols []string
	for _, c := range t.Columns {
		if _, ok := prepared[0][c.Name]; ok {
			cols = append(cols, c.Name)
		}
	}
	if len(cols) == 0 {
		// One all-default row degrades to DEFAULT VALUES; several would
		// silently collapse into a single stored row, so refuse those.
		if len(prepared) > 1 {
			return nil, fmt.Errorf("table %q: %d rows with no column values: %w", t.Name, len(prepared), ErrRowShape)
		}
		return &Statement{SQL: fmt.Sprintf("%s INTO %s DEFAULT VALUES", verb, quoteIdent(t.Name))}, nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(cols)*len(prepared))
	sb.WriteString(verb)
	sb.WriteString(" INTO ")
	sb.WriteString(quoteIdent(t.Name))
	sb.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteIdent(c))
	}
	sb.WriteString(") VALUES ")

	tuple := "(" + placeholders(len(cols)) + ")"
	for i, p := range prepared {
		if len(p) != len(cols) {
			return nil, fmt.Errorf("table %q row %d: %w", t.Name, i, ErrRowShape)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
		for _, c := range cols {
			v, ok := p[c]
			if !ok {
				return nil, fmt.Errorf("table %q row %d: %w", t.Name, i, ErrRowShape)
			}
			args = append(args, v)
		}
	}

	return &Statement{SQL: sb.String(), Args: args}, nil
}

// prepareRow validates the row's keys, fills defaults for omitted
// columns, and encodes every value.
func (t *Table) prepareRow(row Row) (Row, error) {
	for k := range row {
		if _, err := t.Column(k); err != nil {
			return nil, err
		}
	}

	out := make(Row, len(row))
	for _, c := range t.Columns {
		v, ok := row[c.Name]
		if !ok || v == nil {
			def, has, err := c.defaultValue(row)
			if err != nil {
				return nil, err
			}
			if !has {
				continue
			}
			v = def
		}
		encoded, err := c.encode(v)
		if err != nil {
			return nil, err
		}
		if encoded == nil {
			continue
		}
		out[c.Name] = encoded
	}
	return out, nil
}

// Select builds a SELECT over the given columns, defaulting to every
// declared column. The returned statement carries decoders so query
// results come back in the declared Go representation.
func (t *Table) Select(where Where, columns ...string) (*Statement, error) {
	cols := make([]*Column, 0, len(t.Columns))
	if len(columns) == 0 {
		cols = append(cols, t.Columns...)
	} else {
		for _, name := range columns {
			c, err := t.Column(name)
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
		}
	}

	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT ")
	decoders := make(map[string]Codec, len(cols))
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteIdent(c.Name))
		decoders[c.Name] = c.codec
	}
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(t.Name))
	if err := where.appendClause(t, &sb, &args); err != nil {
		return nil, err
	}

	return &Statement{SQL: sb.String(), Args: args, decoders: decoders}, nil
}

// Update builds an UPDATE setting the given columns, in declaration
// order, for rows matched by where. An empty set is an error.
func (t *Table) Update(set Row, where Where) (*Statement, error) {
	if len(set) == 0 {
		return nil, fmt.Errorf("table %q update set: %w", t.Name, ErrEmptyValue)
	}
	for k := range set {
		if _, err := t.Column(k); err != nil {
			return nil, err
		}
	}

	var sb strings.Builder
	var args []any
	sb.WriteString("UPDATE ")
	sb.WriteString(quoteIdent(t.Name))
	sb.WriteString(" SET ")
	first := true
	for _, c := range t.Columns {
		v, ok := set[c.Name]
		if !ok {
			continue
		}
		encoded, err := c.encode(v)
		if err != nil {
			return nil, err
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(quoteIdent(c.Name))
		sb.WriteString(" = ?")
		args = append(args, encoded)
	}
	if err := where.appendClause(t, &sb, &args); err != nil {
		return nil, err
	}

	return &Statement{SQL: sb.String(), Args: args}, nil
}

// Delete builds a DELETE for rows matched by where. An empty where
// deletes every row.
func (t *Table) Delete(where Where) (*Statement, error) {
	var sb strings.Builder
	var args []any
	sb.WriteString("DELETE FROM ")
	sb.WriteString(quoteIdent(t.Name))
	if err := where.appendClause(t, &sb, &args); err != nil {
		return nil, err
	}
	return &Statement{SQL: sb.String(), Args: args}, nil
}
