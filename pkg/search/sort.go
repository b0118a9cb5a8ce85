package search

import (
	"strings"

	"github.com/platinummonkey/querykit/pkg/query"
	"github.com/platinummonkey/querykit/pkg/schema"
)

// SortJoin is the LEFT JOIN a relation-qualified sort needs
type SortJoin struct {
	Table string
	// ForeignKey is the base-table side, LocalKey the related-table side;
	// both are table-qualified
	ForeignKey string
	LocalKey   string
}

// SortDirective is one compiled ORDER BY term
type SortDirective struct {
	Path      string
	Direction query.Direction
	Join      *SortJoin
}

// Apply adds the directive to q. Relation sorts also join the related
// table and re-select every base column so that related columns cannot
// shadow them.
func (d SortDirective) Apply(q *query.Query) *query.Query {
	if d.Join != nil {
		q.LeftJoin(d.Join.Table, d.Join.ForeignKey, d.Join.LocalKey)
		q.OrderBy(d.Path, d.Direction)
		return q.AddSelect(q.Table() + ".*")
	}
	return q.OrderBy(d.Path, d.Direction)
}

// ParseSort compiles the orderBy and sortedBy parameters against the base
// table. With several directives each takes the sortedBy entry at the same
// position, falling back to the first; a single directive uses sortedBy as
// a whole. Invalid directives are dropped.
func ParseSort(orderBy, sortedBy, table string) []SortDirective {
	return parseSort(orderBy, sortedBy, table, nopReporter)
}

func parseSort(orderBy, sortedBy, table string, rep reporter) []SortDirective {
	if strings.TrimSpace(orderBy) == "" {
		return nil
	}
	if strings.TrimSpace(sortedBy) == "" {
		sortedBy = "asc"
	}

	raw := strings.Split(orderBy, ";")
	dirs := []string{sortedBy}
	if len(raw) > 1 {
		dirs = strings.Split(sortedBy, ";")
	}

	var out []SortDirective
	for i, item := range raw {
		dir := dirs[0]
		if i < len(dirs) {
			dir = dirs[i]
		}
		d, ok := parseDirective(item, query.ParseDirection(dir), table, rep)
		if ok {
			out = append(out, d)
		}
	}
	return out
}

func parseDirective(item string, dir query.Direction, table string, rep reporter) (SortDirective, bool) {
	item = strings.TrimSpace(item)
	if item == "" {
		rep.skip(item, ReasonEmptyDirective)
		return SortDirective{}, false
	}

	spec, column, piped := strings.Cut(item, "|")
	if !piped {
		if !query.IsIdentifier(item) {
			rep.skip(item, ReasonInvalidIdentifier)
			return SortDirective{}, false
		}
		return SortDirective{Path: item, Direction: dir}, true
	}

	column = strings.TrimSpace(column)
	if column == "" {
		rep.skip(item, ReasonEmptyDirective)
		return SortDirective{}, false
	}
	if !query.IsIdentifier(column) {
		rep.skip(item, ReasonInvalidIdentifier)
		return SortDirective{}, false
	}

	relTable, keys, keyed := strings.Cut(spec, ":")
	relTable = strings.TrimSpace(relTable)
	if relTable == "" {
		// no join metadata: plain ordering
		return SortDirective{Path: column, Direction: dir}, true
	}
	if !query.IsIdentifier(relTable) {
		rep.skip(item, ReasonInvalidIdentifier)
		return SortDirective{}, false
	}

	join := &SortJoin{
		Table:      relTable,
		ForeignKey: table + "." + schema.ForeignKeyFor(relTable),
		LocalKey:   relTable + ".id",
	}
	if keyed {
		parts := strings.Split(keys, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" && !query.IsIdentifier(parts[i]) {
				rep.skip(item, ReasonInvalidIdentifier)
				return SortDirective{}, false
			}
		}
		if parts[0] != "" {
			join.ForeignKey = query.Qualify(table, parts[0])
		}
		if len(parts) > 1 && parts[1] != "" {
			join.LocalKey = query.Qualify(relTable, parts[1])
		}
	}

	return SortDirective{
		Path:      query.Qualify(relTable, column),
		Direction: dir,
		Join:      join,
	}, true
}
