package schema

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Inspector lists the columns of a table. A table that does not exist
// yields an empty list, not an error.
type Inspector interface {
	Columns(ctx context.Context, table string) ([]string, error)
}

// PostgresInspector reads columns from information_schema
type PostgresInspector struct {
	db     *sqlx.DB
	schema string
}

// NewPostgresInspector creates an inspector for tables in schemaName
// ("public" when empty)
func NewPostgresInspector(db *sqlx.DB, schemaName string) *PostgresInspector {
	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresInspector{db: db, schema: schemaName}
}

// Columns returns the columns of table in ordinal order
func (i *PostgresInspector) Columns(ctx context.Context, table string) ([]string, error) {
	query := i.db.Rebind(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`)

	var columns []string
	if err := i.db.SelectContext(ctx, &columns, query, i.schema, table); err != nil {
		return nil, fmt.Errorf("failed to inspect columns of %s.%s: %w", i.schema, table, err)
	}
	return columns, nil
}

// SQLiteInspector reads columns with the table_info pragma
type SQLiteInspector struct {
	db *sqlx.DB
}

// NewSQLiteInspector creates an inspector backed by db
func NewSQLiteInspector(db *sqlx.DB) *SQLiteInspector {
	return &SQLiteInspector{db: db}
}

// Columns returns the columns of table in declaration order
func (i *SQLiteInspector) Columns(ctx context.Context, table string) ([]string, error) {
	var columns []string
	if err := i.db.SelectContext(ctx, &columns, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table); err != nil {
		return nil, fmt.Errorf("failed to inspect columns of %s: %w", table, err)
	}
	return columns, nil
}

// StaticInspector serves columns from a fixed map, for catalogs that
// declare their schema up front and for tests
type StaticInspector map[string][]string

// Columns returns the declared columns of table
func (s StaticInspector) Columns(_ context.Context, table string) ([]string, error) {
	return append([]string(nil), s[table]...), nil
}

// NewInspector picks the inspector matching a database/sql driver name
func NewInspector(driver string, db *sqlx.DB, schemaName string) (Inspector, error) {
	switch driver {
	case "postgres", "postgresql", "pq":
		return NewPostgresInspector(db, schemaName), nil
	case "sqlite", "sqlite3":
		return NewSQLiteInspector(db), nil
	default:
		return nil, fmt.Errorf("no schema inspector for driver %s", driver)
	}
}
