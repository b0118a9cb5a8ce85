package query

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Direction is an ORDER BY direction
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection returns Desc for a case-insensitive "desc" and Asc for anything else
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

// Join is a LEFT JOIN of Table on Left = Right
type Join struct {
	Table string
	Left  string
	Right string
}

// Order is a single ORDER BY term
type Order struct {
	Column    string
	Direction Direction
}

// Query is a mutable read query against one table. Criteria mutate it in
// place and return it; rendering happens once, at execution time.
type Query struct {
	table     string
	columns   []string
	exprs     []sq.Sqlizer
	wheres    []sq.Sqlizer
	joins     []Join
	orders    []Order
	with      []string
	withCount []string
	limit     *uint64
	offset    *uint64
}

// New creates an unfiltered query over table
func New(table string) *Query {
	return &Query{table: table}
}

// Table returns the base table
func (q *Query) Table() string {
	return q.table
}

// Where adds a predicate group that is AND-ed with the rest of the query
func (q *Query) Where(pred sq.Sqlizer) *Query {
	if pred != nil {
		q.wheres = append(q.wheres, pred)
	}
	return q
}

// LeftJoin adds a LEFT JOIN table ON left = right. Repeating an identical
// join is a no-op.
func (q *Query) LeftJoin(table, left, right string) *Query {
	j := Join{Table: table, Left: left, Right: right}
	for _, existing := range q.joins {
		if existing == j {
			return q
		}
	}
	q.joins = append(q.joins, j)
	return q
}

// OrderBy appends an ORDER BY term
func (q *Query) OrderBy(column string, dir Direction) *Query {
	q.orders = append(q.orders, Order{Column: column, Direction: dir})
	return q
}

// Select replaces the projection
func (q *Query) Select(columns ...string) *Query {
	q.columns = append([]string(nil), columns...)
	return q
}

// AddSelect appends columns to the projection, skipping duplicates. An empty
// projection is first initialised to "<table>.*".
func (q *Query) AddSelect(columns ...string) *Query {
	if len(q.columns) == 0 {
		q.columns = []string{q.table + ".*"}
	}
	for _, c := range columns {
		if !contains(q.columns, c) {
			q.columns = append(q.columns, c)
		}
	}
	return q
}

// AddSelectExpr appends a computed column such as a correlated sub-select
func (q *Query) AddSelectExpr(expr sq.Sqlizer) *Query {
	if expr != nil {
		q.exprs = append(q.exprs, expr)
	}
	return q
}

// With records relations to eager load
func (q *Query) With(relations ...string) *Query {
	q.with = appendUnique(q.with, relations)
	return q
}

// WithCount records relations whose row counts should be loaded
func (q *Query) WithCount(relations ...string) *Query {
	q.withCount = appendUnique(q.withCount, relations)
	return q
}

// Limit caps the number of rows
func (q *Query) Limit(n uint64) *Query {
	q.limit = &n
	return q
}

// Offset skips n rows
func (q *Query) Offset(n uint64) *Query {
	q.offset = &n
	return q
}

// Columns returns a copy of the explicit projection
func (q *Query) Columns() []string { return append([]string(nil), q.columns...) }

// Joins returns a copy of the joins
func (q *Query) Joins() []Join { return append([]Join(nil), q.joins...) }

// Orders returns a copy of the ORDER BY terms
func (q *Query) Orders() []Order { return append([]Order(nil), q.orders...) }

// Eager returns the relations recorded by With
func (q *Query) Eager() []string { return append([]string(nil), q.with...) }

// EagerCount returns the relations recorded by WithCount
func (q *Query) EagerCount() []string { return append([]string(nil), q.withCount...) }

// Predicates returns the number of AND-ed predicate groups
func (q *Query) Predicates() int { return len(q.wheres) }

// Clone returns an independent copy of q
func (q *Query) Clone() *Query {
	c := &Query{
		table:     q.table,
		columns:   append([]string(nil), q.columns...),
		exprs:     append([]sq.Sqlizer(nil), q.exprs...),
		wheres:    append([]sq.Sqlizer(nil), q.wheres...),
		joins:     append([]Join(nil), q.joins...),
		orders:    append([]Order(nil), q.orders...),
		with:      append([]string(nil), q.with...),
		withCount: append([]string(nil), q.withCount...),
	}
	if q.limit != nil {
		l := *q.limit
		c.limit = &l
	}
	if q.offset != nil {
		o := *q.offset
		c.offset = &o
	}
	return c
}

// Builder assembles the squirrel select builder for q
func (q *Query) Builder(d Dialect) sq.SelectBuilder {
	b := sq.Select(q.selectColumns()...).From(q.table).PlaceholderFormat(d.Placeholder())
	for _, e := range q.exprs {
		b = b.Column(e)
	}
	for _, j := range q.joins {
		b = b.LeftJoin(fmt.Sprintf("%s ON %s = %s", j.Table, j.Left, j.Right))
	}
	for _, w := range q.wheres {
		b = b.Where(w)
	}
	for _, o := range q.orders {
		b = b.OrderBy(o.Column + " " + string(o.Direction))
	}
	if q.limit != nil {
		b = b.Limit(*q.limit)
	}
	if q.offset != nil {
		b = b.Offset(*q.offset)
	}
	return b
}

// ToSQL renders q for the given dialect
func (q *Query) ToSQL(d Dialect) (string, []interface{}, error) {
	return q.Builder(d).ToSql()
}

// CountSQL renders a COUNT(*) over the filtered rows of q, ignoring
// projection, joins, ordering and paging
func (q *Query) CountSQL(d Dialect) (string, []interface{}, error) {
	b := sq.Select("COUNT(*)").From(q.table).PlaceholderFormat(d.Placeholder())
	for _, w := range q.wheres {
		b = b.Where(w)
	}
	return b.ToSql()
}

func (q *Query) selectColumns() []string {
	if len(q.columns) > 0 {
		return q.columns
	}
	if len(q.joins) > 0 || len(q.exprs) > 0 {
		return []string{q.table + ".*"}
	}
	return []string{"*"}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func appendUnique(list, values []string) []string {
	for _, v := range values {
		if v != "" && !contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
