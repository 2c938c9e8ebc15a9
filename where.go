package dsorm

import (
	"fmt"
	"sort"
	"strings"
)

// Cond is one predicate in a where clause. Conditions are built against
// a specific table so column references are validated and values pass
// through the column's codec before binding.
type Cond interface {
	appendSQL(t *Table, sb *strings.Builder, args *[]any) error
}

// Where is an AND-joined list of conditions. An empty Where matches all
// rows.
type Where []Cond

// Filter builds an equality Where from a row mapping. Conditions are
// emitted in sorted key order so generated SQL is deterministic.
func Filter(row Row) Where {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := make(Where, 0, len(keys))
	for _, k := range keys {
		w = append(w, Eq(k, row[k]))
	}
	return w
}

func (w Where) appendClause(t *Table, sb *strings.Builder, args *[]any) error {
	if len(w) == 0 {
		return nil
	}
	sb.WriteString(" WHERE ")
	return joinConds(t, w, " AND ", sb, args)
}

func joinConds(t *Table, conds []Cond, sep string, sb *strings.Builder, args *[]any) error {
	for i, c := range conds {
		if i > 0 {
			sb.WriteString(sep)
		}
		if err := c.appendSQL(t, sb, args); err != nil {
			return err
		}
	}
	return nil
}

type cmp struct {
	column string
	op     string
	value  any
}

func (c cmp) appendSQL(t *Table, sb *strings.Builder, args *[]any) error {
	col, err := t.Column(c.column)
	if err != nil {
		return err
	}
	v, err := col.encode(c.value)
	if err != nil {
		return err
	}
	sb.WriteString(quoteIdent(col.Name))
	sb.WriteString(" ")
	sb.WriteString(c.op)
	sb.WriteString(" ?")
	*args = append(*args, v)
	return nil
}

// Eq matches rows where the column equals the value.
func Eq(column string, value any) Cond { return cmp{column, "=", value} }

// Ne matches rows where the column differs from the value.
func Ne(column string, value any) Cond { return cmp{column, "!=", value} }

// Gt matches rows where the column is greater than the value.
func Gt(column string, value any) Cond { return cmp{column, ">", value} }

// Ge matches rows where the column is greater than or equal to the value.
func Ge(column string, value any) Cond { return cmp{column, ">=", value} }

// Lt matches rows where the column is less than the value.
func Lt(column string, value any) Cond { return cmp{column, "<", value} }

// Le matches rows where the column is less than or equal to the value.
func Le(column string, value any) Cond { return cmp{column, "<=", value} }

// Like matches rows where the column matches the SQL LIKE pattern.
func Like(column string, pattern string) Cond { return cmp{column, "LIKE", pattern} }

type inCond struct {
	column string
	values []any
	negate bool
}

func (c inCond) appendSQL(t *Table, sb *strings.Builder, args *[]any) error {
	col, err := t.Column(c.column)
	if err != nil {
		return err
	}
	if len(c.values) == 0 {
		return fmt.Errorf("IN condition on column %q requires at least one value", col.Name)
	}
	sb.WriteString(quoteIdent(col.Name))
	if c.negate {
		sb.WriteString(" NOT IN (")
	} else {
		sb.WriteString(" IN (")
	}
	sb.WriteString(placeholders(len(c.values)))
	sb.WriteString(")")
	for _, v := range c.values {
		encoded, err := col.encode(v)
		if err != nil {
			return err
		}
		*args = append(*args, encoded)
	}
	return nil
}

// In matches rows where the column equals any of the values.
func In(column string, values ...any) Cond { return inCond{column: column, values: values} }

// NotIn matches rows where the column equals none of the values.
func NotIn(column string, values ...any) Cond {
	return inCond{column: column, values: values, negate: true}
}

type group struct {
	op    string
	conds []Cond
}

func (g group) appendSQL(t *Table, sb *strings.Builder, args *[]any) error {
	if len(g.conds) == 0 {
		return fmt.Errorf("%s group requires at least one condition", g.op)
	}
	sb.WriteString("(")
	if err := joinConds(t, g.conds, " "+g.op+" ", sb, args); err != nil {
		return err
	}
	sb.WriteString(")")
	return nil
}

// Or joins conditions with OR inside parentheses.
func Or(conds ...Cond) Cond { return group{op: "OR", conds: conds} }

// And joins conditions with AND inside parentheses. Useful inside an Or
// group.
func And(conds ...Cond) Cond { return group{op: "AND", conds: conds} }
