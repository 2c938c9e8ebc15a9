package schemafile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsorm"
)

const sampleSchema = `
database: ":memory:"
pragmas:
  - name: foreign_keys
    value: "ON"
tables:
  - name: author
    columns:
      - name: id
        type: integer
        primary_key: true
      - name: name
        type: text
        not_null: true
        unique: true
    seed:
      - {id: 1, name: "JK Rowling"}
  - name: book
    columns:
      - name: id
        type: integer
        primary_key: true
      - name: title
        type: text
        not_null: true
      - name: status
        type: text
        default: draft
      - name: author_id
        type: integer
    foreign_keys:
      - column: author_id
        references: author.id
    indexes:
      - columns: [title]
        unique: true
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleSchema))
	require.NoError(t, err)

	assert.Equal(t, ":memory:", f.Database)
	require.Len(t, f.Pragmas, 1)
	require.Len(t, f.Tables, 2)
	assert.Equal(t, "author", f.Tables[0].Name)
	assert.Equal(t, "book", f.Tables[1].Name)
}

func TestParseDefaultsDatabase(t *testing.T) {
	f, err := Parse([]byte(`tables: []`))
	require.NoError(t, err)
	assert.Equal(t, ":memory:", f.Database)
}

func TestBuild(t *testing.T) {
	f, err := Parse([]byte(sampleSchema))
	require.NoError(t, err)

	tables, pragmas, err := f.Build()
	require.NoError(t, err)
	require.Len(t, tables, 2)
	require.Len(t, pragmas, 1)

	author, book := tables[0], tables[1]

	pk, ok := author.PrimaryKey()
	require.True(t, ok)
	assert.Equal(t, "id", pk.Name)
	require.Len(t, author.Seed, 1)

	require.Len(t, book.ForeignKeys, 1)
	assert.Equal(t, dsorm.ForeignKey{Column: "author_id", RefTable: "author", RefColumn: "id"}, book.ForeignKeys[0])

	require.Len(t, book.Indexes, 1)
	assert.Equal(t, "book_title_idx", book.Indexes[0].Name)
	assert.True(t, book.Indexes[0].Unique)

	ddl, err := book.CreateSQL()
	require.NoError(t, err)
	assert.Contains(t, ddl, `"status" TEXT DEFAULT 'draft'`)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   string
	}{
		{
			name: "bad reference",
			schema: `
tables:
  - name: book
    columns:
      - {name: author_id, type: integer}
    foreign_keys:
      - column: author_id
        references: author
`,
			want: "table.column",
		},
		{
			name: "bad column type",
			schema: `
tables:
  - name: t
    columns:
      - {name: a, type: decimal}
`,
			want: "decimal",
		},
		{
			name: "bad pragma",
			schema: `
pragmas:
  - {name: foreign_keys, value: "ON; DROP"}
tables: []
`,
			want: "pragma",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.schema))
			require.NoError(t, err)

			_, _, err = f.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildAndInitialize(t *testing.T) {
	ctx := context.Background()

	f, err := Parse([]byte(sampleSchema))
	require.NoError(t, err)
	tables, pragmas, err := f.Build()
	require.NoError(t, err)

	opts := make([]dsorm.Option, 0, len(tables)+len(pragmas))
	for _, p := range pragmas {
		opts = append(opts, dsorm.WithPragma(p.Name, p.Value))
	}
	for _, tbl := range tables {
		opts = append(opts, dsorm.WithTable(tbl))
	}

	db, err := dsorm.Open(f.Database, opts...)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Init(ctx))

	author, err := db.Table("author")
	require.NoError(t, err)
	stmt, err := author.Select(nil)
	require.NoError(t, err)
	rows, err := db.Query(ctx, stmt)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "JK Rowling", rows[0]["name"])
}
