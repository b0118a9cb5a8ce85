package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/platinummonkey/querykit/pkg/query"
	"github.com/platinummonkey/querykit/pkg/schema"
)

// directLink resolves a single-segment relation whose table is known.
// Nested paths are not loaded.
func (r *Repository) directLink(name string) (schema.Link, bool) {
	links, ok := r.ResolveRelation(name)
	if !ok || len(links) != 1 || !r.snapshot.HasTable(links[0].Table()) {
		r.logger.WithField("relation", name).Debug("repository: relation not loadable")
		return schema.Link{}, false
	}
	return links[0], true
}

// withCounts adds a correlated COUNT(*) column per counted relation
func (r *Repository) withCounts(q *query.Query) *query.Query {
	names := q.EagerCount()
	if len(names) == 0 {
		return q
	}
	q = q.Clone()
	for _, name := range names {
		link, ok := r.directLink(name)
		if !ok {
			continue
		}
		q.AddSelectExpr(sq.Expr(fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE %s = %s) AS %s_count",
			link.Table(),
			query.Qualify(link.Table(), link.RelatedKey),
			query.Qualify(link.ParentTable, link.ParentKey),
			name,
		)))
	}
	return q
}

// eagerLoad runs one IN query per relation and attaches the matches to
// records under the relation name. has_many relations attach a slice;
// has_one and belongs_to attach a single record or nil.
func (r *Repository) eagerLoad(ctx context.Context, q *query.Query, records []Record, db *sqlx.DB) error {
	for _, name := range q.Eager() {
		link, ok := r.directLink(name)
		if !ok {
			continue
		}

		related := []Record{}
		if keys := distinctValues(records, link.ParentKey); len(keys) > 0 {
			rq := query.New(link.Table()).Where(sq.Eq{query.Qualify(link.Table(), link.RelatedKey): keys})
			statement, args, err := rq.ToSQL(r.dialect)
			if err != nil {
				return fmt.Errorf("render eager load %s: %w", name, err)
			}
			rows, err := db.QueryxContext(ctx, statement, args...)
			if err != nil {
				return fmt.Errorf("eager load %s: %w", name, err)
			}
			if related, err = scanRecords(rows); err != nil {
				return fmt.Errorf("eager load %s: %w", name, err)
			}
		}
		attach(records, name, link, related)
	}
	return nil
}

func distinctValues(records []Record, column string) []interface{} {
	seen := make(map[string]bool)
	var values []interface{}
	for _, rec := range records {
		v, ok := rec[column]
		if !ok || v == nil {
			continue
		}
		key := fmt.Sprint(v)
		if !seen[key] {
			seen[key] = true
			values = append(values, v)
		}
	}
	return values
}

func attach(records []Record, name string, link schema.Link, related []Record) {
	groups := make(map[string][]Record)
	for _, rel := range related {
		key := fmt.Sprint(rel[link.RelatedKey])
		groups[key] = append(groups[key], rel)
	}

	for _, rec := range records {
		var matched []Record
		if v := rec[link.ParentKey]; v != nil {
			matched = groups[fmt.Sprint(v)]
		}

		if link.Relation.Kind == schema.HasMany {
			if matched == nil {
				matched = []Record{}
			}
			rec[name] = matched
			continue
		}
		if len(matched) > 0 {
			rec[name] = matched[0]
		} else {
			rec[name] = nil
		}
	}
}
