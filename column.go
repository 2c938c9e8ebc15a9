package dsorm

import (
	"fmt"
	"strings"
)

// Column describes one column of a declared table. Columns are plain
// data; they become read-only once their table is constructed.
type Column struct {
	Name       string
	Type       ColumnType
	NotNull    bool
	Unique     bool
	PrimaryKey bool

	// Default is a static default value. It is rendered into the CREATE
	// TABLE text and also filled in for rows that omit the column at
	// insert time.
	Default any

	// DefaultFunc generates a default from the row being inserted and
	// takes precedence over Default. It is applied only at insert time,
	// never in DDL.
	DefaultFunc func(Row) (any, error)

	// Codec overrides the default codec for Type.
	Codec Codec

	codec Codec
}

func (c *Column) resolve() error {
	if c.Name == "" {
		return fmt.Errorf("column name: %w", ErrEmptyValue)
	}
	if c.Codec != nil {
		c.codec = c.Codec
		return nil
	}
	codec, err := codecFor(c.Type)
	if err != nil {
		return fmt.Errorf("column %q: %w", c.Name, err)
	}
	c.codec = codec
	return nil
}

// encode runs a caller-supplied value through the column's codec.
func (c *Column) encode(v any) (any, error) {
	out, err := c.codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", c.Name, err)
	}
	return out, nil
}

// defaultValue resolves the column's default for a row that omits it.
// The second return reports whether a default exists at all.
func (c *Column) defaultValue(row Row) (any, bool, error) {
	if c.DefaultFunc != nil {
		v, err := c.DefaultFunc(row)
		if err != nil {
			return nil, false, fmt.Errorf("default for column %q: %w", c.Name, err)
		}
		return v, true, nil
	}
	if c.Default != nil {
		return c.Default, true, nil
	}
	return nil, false, nil
}

// ddl renders the column definition fragment used inside CREATE TABLE.
// Marker order: name, storage class, NOT NULL, UNIQUE, PRIMARY KEY,
// DEFAULT.
func (c *Column) ddl() (string, error) {
	parts := []string{quoteIdent(c.Name), c.codec.StorageClass()}
	if c.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if c.Unique {
		parts = append(parts, "UNIQUE")
	}
	if c.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if c.Default != nil && c.DefaultFunc == nil {
		encoded, err := c.encode(c.Default)
		if err != nil {
			return "", err
		}
		lit, err := sqlLiteral(encoded)
		if err != nil {
			return "", fmt.Errorf("default for column %q: %w", c.Name, err)
		}
		parts = append(parts, "DEFAULT "+lit)
	}
	return strings.Join(parts, " "), nil
}
