package dsorm

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Statement pairs generated SQL text with its bound arguments. A
// Statement is single-use: it is consumed by one Exec or Query call and
// discarded afterwards.
type Statement struct {
	SQL  string
	Args []any

	// decoders maps selected column names to their codecs so query
	// results come back in the declared Go representation.
	decoders map[string]Codec
	used     bool
}

// Raw wraps literal SQL text and arguments in a Statement. The text is
// executed as-is; arguments are still bound as parameters.
func Raw(sql string, args ...any) *Statement {
	return &Statement{SQL: sql, Args: args}
}

func (s *Statement) consume() error {
	if s.used {
		return ErrStatementConsumed
	}
	s.used = true
	return nil
}

// quoteIdent quotes an identifier for use in SQL text.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sqlLiteral renders an already-encoded value as a SQL literal. This is
// used only for DDL defaults, where SQLite does not accept bound
// parameters; DML values are always bound.
func sqlLiteral(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case []byte:
		return "X'" + hex.EncodeToString(x) + "'", nil
	default:
		return "", fmt.Errorf("cannot render %T as a SQL literal", v)
	}
}

// placeholders returns "?, ?, ..." for n bound values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
