package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/querykit/pkg/criteria"
	"github.com/platinummonkey/querykit/pkg/observability"
	"github.com/platinummonkey/querykit/pkg/query"
)

// All returns every row the chain lets through
func (r *Repository) All(ctx context.Context, columns ...string) ([]Record, error) {
	q, err := r.prepare(columns)
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, "all", q, r.reader())
}

// Paginate returns one page of rows together with the total row count.
// perPage defaults to DefaultPerPage and page is 1-based.
func (r *Repository) Paginate(ctx context.Context, perPage, page int, columns ...string) (result *Page, err error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}

	q, err := r.prepare(columns)
	if err != nil {
		return nil, err
	}

	ctx, span := r.startSpan(ctx, "paginate")
	defer func() { observability.EndSpan(span, err) }()

	countSQL, countArgs, err := q.CountSQL(r.dialect)
	if err != nil {
		return nil, fmt.Errorf("render count: %w", err)
	}
	q.Limit(uint64(perPage)).Offset(uint64((page - 1) * perPage))

	result = &Page{PerPage: perPage, CurrentPage: page}
	db := r.reader()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		err := db.GetContext(gctx, &result.Total, countSQL, countArgs...)
		r.metrics.ObserveQuery("count", start, -1, err)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		data, err := r.fetch(gctx, "page", q, db)
		result.Data = data
		return err
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	result.LastPage = int((result.Total + int64(perPage) - 1) / int64(perPage))
	if result.LastPage < 1 {
		result.LastPage = 1
	}
	return result, nil
}

// First returns the first row the chain lets through
func (r *Repository) First(ctx context.Context, columns ...string) (Record, error) {
	q, err := r.prepare(columns)
	if err != nil {
		return nil, err
	}
	return r.one(ctx, "first", q.Limit(1), r.reader())
}

// Last returns the row with the highest primary key
func (r *Repository) Last(ctx context.Context, columns ...string) (Record, error) {
	q, err := r.prepare(columns)
	if err != nil {
		return nil, err
	}
	q.OrderBy(query.Qualify(r.entity.Table, r.entity.PrimaryKey), query.Desc).Limit(1)
	return r.one(ctx, "last", q, r.reader())
}

// Find returns the row with primary key id or ErrNotFound
func (r *Repository) Find(ctx context.Context, id interface{}, columns ...string) (Record, error) {
	return r.find(ctx, id, columns, r.reader())
}

func (r *Repository) find(ctx context.Context, id interface{}, columns []string, db *sqlx.DB) (Record, error) {
	q, err := r.prepare(columns)
	if err != nil {
		return nil, err
	}
	q.Where(sq.Eq{query.Qualify(r.entity.Table, r.entity.PrimaryKey): id}).Limit(1)
	return r.one(ctx, "find", q, db)
}

// FindByField returns rows whose field equals value
func (r *Repository) FindByField(ctx context.Context, field string, value interface{}, columns ...string) ([]Record, error) {
	return r.FindWhere(ctx, map[string]interface{}{field: value}, columns...)
}

// FindWhere returns rows matching every column = value pair of where
func (r *Repository) FindWhere(ctx context.Context, where map[string]interface{}, columns ...string) ([]Record, error) {
	eq := sq.Eq{}
	for field, value := range where {
		col, err := r.column(field)
		if err != nil {
			return nil, err
		}
		eq[col] = value
	}

	q, err := r.prepare(columns)
	if err != nil {
		return nil, err
	}
	if len(eq) > 0 {
		q.Where(eq)
	}
	return r.fetch(ctx, "find_where", q, r.reader())
}

// FindWhereIn returns rows whose field is one of values
func (r *Repository) FindWhereIn(ctx context.Context, field string, values []interface{}, columns ...string) ([]Record, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	col, err := r.column(field)
	if err != nil {
		return nil, err
	}

	q, err := r.prepare(columns)
	if err != nil {
		return nil, err
	}
	q.Where(sq.Eq{col: values})
	return r.fetch(ctx, "find_where_in", q, r.reader())
}

// GetByCriteria returns the rows c lets through, ignoring the chain
func (r *Repository) GetByCriteria(ctx context.Context, c criteria.Criteria) ([]Record, error) {
	if c == nil {
		return nil, fmt.Errorf("get by criteria: nil criteria")
	}
	q, err := r.apply(c)
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, "get_by_criteria", q, r.reader())
}

func (r *Repository) one(ctx context.Context, op string, q *query.Query, db *sqlx.DB) (Record, error) {
	records, err := r.fetch(ctx, op, q, db)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// fetch renders q, scans every row and resolves eager loads
func (r *Repository) fetch(ctx context.Context, op string, q *query.Query, db *sqlx.DB) (records []Record, err error) {
	ctx, span := r.startSpan(ctx, op)
	start := time.Now()
	defer func() {
		r.metrics.ObserveQuery(op, start, len(records), err)
		observability.EndSpan(span, err)
	}()

	q = r.withCounts(q)
	statement, args, err := q.ToSQL(r.dialect)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", op, err)
	}
	span.SetAttributes(observability.SQLAttributes(r.entity.Table, statement, len(args))...)

	logger := observability.UpdateLoggerWithTraceContext(ctx, r.logger).WithField("operation", op)
	logger.WithField("sql", statement).Debug("executing query")

	rows, err := db.QueryxContext(ctx, statement, args...)
	if err != nil {
		logger.WithError(err).Error("query failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	records, err = scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = r.eagerLoad(ctx, q, records, db); err != nil {
		logger.WithError(err).Error("eager load failed")
		return nil, err
	}
	return records, nil
}

// scanRecords drains rows. Byte slices are converted to strings so records
// marshal as text.
func scanRecords(rows *sqlx.Rows) ([]Record, error) {
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		m := make(map[string]interface{})
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		records = append(records, Record(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}
