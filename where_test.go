package dsorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWhere(t *testing.T, table *Table, w Where) (string, []any) {
	t.Helper()
	var sb strings.Builder
	var args []any
	require.NoError(t, w.appendClause(table, &sb, &args))
	return sb.String(), args
}

func TestWhereEmpty(t *testing.T) {
	sql, args := buildWhere(t, personTable(t), nil)
	assert.Empty(t, sql)
	assert.Empty(t, args)
}

func TestWhereAndJoin(t *testing.T) {
	table := personTable(t)
	sql, args := buildWhere(t, table, Where{
		Eq("last_name", "Doe"),
		Like("first_name", "J%"),
	})

	assert.Equal(t, ` WHERE "last_name" = ? AND "first_name" LIKE ?`, sql)
	assert.Equal(t, []any{"Doe", "J%"}, args)
}

func TestWhereOperators(t *testing.T) {
	table := personTable(t)

	tests := []struct {
		name string
		cond Cond
		want string
	}{
		{"eq", Eq("id", 1), `"id" = ?`},
		{"ne", Ne("id", 1), `"id" != ?`},
		{"gt", Gt("id", 1), `"id" > ?`},
		{"ge", Ge("id", 1), `"id" >= ?`},
		{"lt", Lt("id", 1), `"id" < ?`},
		{"le", Le("id", 1), `"id" <= ?`},
		{"like", Like("first_name", "J%"), `"first_name" LIKE ?`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildWhere(t, table, Where{tt.cond})
			assert.Equal(t, " WHERE "+tt.want, sql)
			assert.Len(t, args, 1)
		})
	}
}

func TestWhereOrGroup(t *testing.T) {
	table := personTable(t)
	sql, args := buildWhere(t, table, Where{
		Eq("last_name", "Doe"),
		Or(Eq("first_name", "John"), Eq("first_name", "Jane")),
	})

	assert.Equal(t, ` WHERE "last_name" = ? AND ("first_name" = ? OR "first_name" = ?)`, sql)
	assert.Equal(t, []any{"Doe", "John", "Jane"}, args)
}

func TestWhereNestedAndInsideOr(t *testing.T) {
	table := personTable(t)
	sql, _ := buildWhere(t, table, Where{
		Or(
			And(Eq("first_name", "John"), Eq("last_name", "Doe")),
			Eq("id", 1),
		),
	})

	assert.Equal(t, ` WHERE (("first_name" = ? AND "last_name" = ?) OR "id" = ?)`, sql)
}

func TestWhereIn(t *testing.T) {
	table := personTable(t)

	sql, args := buildWhere(t, table, Where{In("id", 1, 2, 3)})
	assert.Equal(t, ` WHERE "id" IN (?, ?, ?)`, sql)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, args)

	sql, _ = buildWhere(t, table, Where{NotIn("id", 1)})
	assert.Equal(t, ` WHERE "id" NOT IN (?)`, sql)
}

func TestWhereInEmpty(t *testing.T) {
	var sb strings.Builder
	var args []any
	err := Where{In("id")}.appendClause(personTable(t), &sb, &args)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one value")
}

func TestWhereUnknownColumn(t *testing.T) {
	var sb strings.Builder
	var args []any
	err := Where{Eq("nope", 1)}.appendClause(personTable(t), &sb, &args)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestFilterSortedKeys(t *testing.T) {
	table := personTable(t)
	sql, args := buildWhere(t, table, Filter(Row{
		"last_name":  "Doe",
		"first_name": "John",
	}))

	assert.Equal(t, ` WHERE "first_name" = ? AND "last_name" = ?`, sql)
	assert.Equal(t, []any{"John", "Doe"}, args)
}

func TestWhereValuesUseColumnCodec(t *testing.T) {
	table, err := NewTable("event", []*Column{
		{Name: "active", Type: Bool},
	})
	require.NoError(t, err)

	sql, args := buildWhere(t, table, Where{Eq("active", true)})
	assert.Equal(t, ` WHERE "active" = ?`, sql)
	assert.Equal(t, []any{int64(1)}, args)
}
