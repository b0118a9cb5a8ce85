package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/platinummonkey/querykit/pkg/observability"
)

// Create inserts attrs and returns the stored row
func (r *Repository) Create(ctx context.Context, attrs map[string]interface{}) (Record, error) {
	values, err := r.checkAttributes(attrs)
	if err != nil {
		return nil, err
	}

	b := sq.Insert(r.entity.Table).
		SetMap(values).
		Suffix("RETURNING *").
		PlaceholderFormat(r.dialect.Placeholder())
	return r.returning(ctx, "create", b)
}

// Update applies attrs to the row with primary key id and returns the
// updated row. The row must be visible through the chain.
func (r *Repository) Update(ctx context.Context, id interface{}, attrs map[string]interface{}) (Record, error) {
	values, err := r.checkAttributes(attrs)
	if err != nil {
		return nil, err
	}
	if _, err := r.find(ctx, id, nil, r.db); err != nil {
		return nil, err
	}

	b := sq.Update(r.entity.Table).
		SetMap(values).
		Where(sq.Eq{r.entity.PrimaryKey: id}).
		Suffix("RETURNING *").
		PlaceholderFormat(r.dialect.Placeholder())
	return r.returning(ctx, "update", b)
}

// Delete removes the row with primary key id and returns it as it was
// before deletion. The row must be visible through the chain.
func (r *Repository) Delete(ctx context.Context, id interface{}) (rec Record, err error) {
	rec, err = r.find(ctx, id, nil, r.db)
	if err != nil {
		return nil, err
	}

	ctx, span := r.startSpan(ctx, "delete")
	start := time.Now()
	defer func() {
		r.metrics.ObserveQuery("delete", start, -1, err)
		observability.EndSpan(span, err)
	}()

	statement, args, err := sq.Delete(r.entity.Table).
		Where(sq.Eq{r.entity.PrimaryKey: id}).
		PlaceholderFormat(r.dialect.Placeholder()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("render delete: %w", err)
	}
	span.SetAttributes(observability.SQLAttributes(r.entity.Table, statement, len(args))...)

	if _, err = r.db.ExecContext(ctx, statement, args...); err != nil {
		r.logger.WithError(err).WithField("operation", "delete").Error("query failed")
		return nil, fmt.Errorf("delete: %w", err)
	}
	return rec, nil
}

// returning executes a write ending in RETURNING * and scans the row
func (r *Repository) returning(ctx context.Context, op string, b sq.Sqlizer) (rec Record, err error) {
	ctx, span := r.startSpan(ctx, op)
	start := time.Now()
	defer func() {
		rows := 0
		if rec != nil {
			rows = 1
		}
		r.metrics.ObserveQuery(op, start, rows, err)
		observability.EndSpan(span, err)
	}()

	statement, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", op, err)
	}
	span.SetAttributes(observability.SQLAttributes(r.entity.Table, statement, len(args))...)

	rows, err := r.db.QueryxContext(ctx, statement, args...)
	if err != nil {
		r.logger.WithError(err).WithField("operation", op).Error("query failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// checkAttributes rejects empty writes and columns the table lacks
func (r *Repository) checkAttributes(attrs map[string]interface{}) (map[string]interface{}, error) {
	if len(attrs) == 0 {
		return nil, ErrNoValues
	}
	values := make(map[string]interface{}, len(attrs))
	for field, value := range attrs {
		if !r.snapshot.HasColumn(r.entity.Table, field) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, field)
		}
		values[field] = value
	}
	return values, nil
}
