package query

import (
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect selects the placeholder format used when rendering
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// ParseDialect maps a database/sql driver name to a Dialect
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s (must be postgres or sqlite3)", driver)
	}
}

// Placeholder returns the squirrel placeholder format for d
func (d Dialect) Placeholder() sq.PlaceholderFormat {
	if d == SQLite {
		return sq.Question
	}
	return sq.Dollar
}

// Hop is one step of a relation path. Rows of Table match their parent
// when Left = Right; both sides are table-qualified columns.
type Hop struct {
	Table string
	Left  string
	Right string
}

// Exists scopes pred to rows reachable through hops, nesting one
// EXISTS sub-query per hop
func Exists(hops []Hop, pred sq.Sqlizer) sq.Sqlizer {
	return existsExpr{hops: hops, pred: pred}
}

type existsExpr struct {
	hops []Hop
	pred sq.Sqlizer
}

func (e existsExpr) ToSql() (string, []interface{}, error) {
	inner := e.pred
	for i := len(e.hops) - 1; i >= 0; i-- {
		h := e.hops[i]
		sub := sq.Select("1").From(h.Table).Where(sq.Expr(h.Left + " = " + h.Right))
		if inner != nil {
			sub = sub.Where(inner)
		}
		sql, args, err := sub.ToSql()
		if err != nil {
			return "", nil, err
		}
		inner = sq.Expr("EXISTS ("+sql+")", args...)
	}
	if inner == nil {
		return "", nil, fmt.Errorf("exists expression has neither hops nor predicate")
	}
	return inner.ToSql()
}

// Between renders column BETWEEN low AND high
func Between(column string, low, high interface{}) sq.Sqlizer {
	return sq.Expr(column+" BETWEEN ? AND ?", low, high)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// IsIdentifier reports whether s is a plain or dotted SQL identifier
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// IsColumnSelector reports whether s may appear in a projection: an
// identifier, "*", or "<table>.*"
func IsColumnSelector(s string) bool {
	if s == "*" {
		return true
	}
	if strings.HasSuffix(s, ".*") {
		return IsIdentifier(strings.TrimSuffix(s, ".*"))
	}
	return IsIdentifier(s)
}

// Qualify prefixes column with table unless it is already qualified
func Qualify(table, column string) string {
	if strings.Contains(column, ".") {
		return column
	}
	return table + "." + column
}
