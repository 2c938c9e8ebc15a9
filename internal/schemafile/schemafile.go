// Package schemafile loads declarative schema documents from YAML and
// builds the corresponding table and pragma declarations. A schema file
// holds everything needed to initialize a database: the file path,
// pragmas, ordered table specs with columns, foreign keys, indexes, and
// seed rows.
package schemafile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"dsorm"
)

// File is the root of a schema document.
type File struct {
	// Database is the SQLite file path, or ":memory:".
	Database string       `yaml:"database"`
	Pragmas  []PragmaSpec `yaml:"pragmas"`
	Tables   []TableSpec  `yaml:"tables"`
}

type PragmaSpec struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type TableSpec struct {
	Name        string           `yaml:"name"`
	Columns     []ColumnSpec     `yaml:"columns"`
	ForeignKeys []ForeignKeySpec `yaml:"foreign_keys"`
	Indexes     []IndexSpec      `yaml:"indexes"`
	Seed        []map[string]any `yaml:"seed"`
}

type ColumnSpec struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	NotNull    bool   `yaml:"not_null"`
	Unique     bool   `yaml:"unique"`
	PrimaryKey bool   `yaml:"primary_key"`
	Default    any    `yaml:"default"`
}

// ForeignKeySpec declares a constraint as a local column plus a
// "table.column" reference.
type ForeignKeySpec struct {
	Column     string `yaml:"column"`
	References string `yaml:"references"`
}

type IndexSpec struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique"`
}

// Load reads and parses a schema file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Parse(data)
}

// Parse parses a schema document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}
	if f.Database == "" {
		f.Database = ":memory:"
	}
	return &f, nil
}

// Build validates the document and returns the declared tables, in
// document order, along with the pragma list.
func (f *File) Build() ([]*dsorm.Table, []dsorm.Pragma, error) {
	pragmas := make([]dsorm.Pragma, 0, len(f.Pragmas))
	for _, p := range f.Pragmas {
		pragma := dsorm.Pragma{Name: p.Name, Value: p.Value}
		if _, err := pragma.SQL(); err != nil {
			return nil, nil, err
		}
		pragmas = append(pragmas, pragma)
	}

	tables := make([]*dsorm.Table, 0, len(f.Tables))
	for _, ts := range f.Tables {
		t, err := buildTable(ts)
		if err != nil {
			return nil, nil, err
		}
		tables = append(tables, t)
	}
	return tables, pragmas, nil
}

func buildTable(ts TableSpec) (*dsorm.Table, error) {
	cols := make([]*dsorm.Column, 0, len(ts.Columns))
	for _, cs := range ts.Columns {
		ct, err := columnType(cs.Type)
		if err != nil {
			return nil, fmt.Errorf("table %q column %q: %w", ts.Name, cs.Name, err)
		}
		cols = append(cols, &dsorm.Column{
			Name:       cs.Name,
			Type:       ct,
			NotNull:    cs.NotNull,
			Unique:     cs.Unique,
			PrimaryKey: cs.PrimaryKey,
			Default:    cs.Default,
		})
	}

	opts := make([]dsorm.TableOption, 0, len(ts.ForeignKeys)+len(ts.Indexes)+1)
	for _, fk := range ts.ForeignKeys {
		refTable, refColumn, err := splitReference(fk.References)
		if err != nil {
			return nil, fmt.Errorf("table %q foreign key on %q: %w", ts.Name, fk.Column, err)
		}
		opts = append(opts, dsorm.WithForeignKey(fk.Column, refTable, refColumn))
	}
	for _, ix := range ts.Indexes {
		opts = append(opts, dsorm.WithIndexes(dsorm.Index{Name: ix.Name, Columns: ix.Columns, Unique: ix.Unique}))
	}
	if len(ts.Seed) > 0 {
		rows := make([]dsorm.Row, 0, len(ts.Seed))
		for _, m := range ts.Seed {
			rows = append(rows, dsorm.Row(m))
		}
		opts = append(opts, dsorm.WithSeed(rows...))
	}

	return dsorm.NewTable(ts.Name, cols, opts...)
}

// splitReference parses a "table.column" reference.
func splitReference(ref string) (string, string, error) {
	parts := strings.Split(ref, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("reference %q must be table.column", ref)
	}
	return parts[0], parts[1], nil
}

func columnType(name string) (dsorm.ColumnType, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return dsorm.Text, nil
	case "integer", "int":
		return dsorm.Integer, nil
	case "real", "float":
		return dsorm.Real, nil
	case "blob":
		return dsorm.Blob, nil
	case "bool", "boolean":
		return dsorm.Bool, nil
	case "time", "timestamp":
		return dsorm.Time, nil
	case "json":
		return dsorm.JSON, nil
	default:
		return "", fmt.Errorf("unknown column type %q", name)
	}
}
