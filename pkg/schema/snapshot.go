package schema

import (
	"context"
	"fmt"
)

// Snapshot is an immutable view of table columns taken once, so that
// column-existence checks during query compilation never touch the database
type Snapshot struct {
	tables map[string]map[string]struct{}
}

// NewSnapshot builds a snapshot from a table -> columns map
func NewSnapshot(columns map[string][]string) *Snapshot {
	s := &Snapshot{tables: make(map[string]map[string]struct{}, len(columns))}
	for table, cols := range columns {
		set := make(map[string]struct{}, len(cols))
		for _, c := range cols {
			set[c] = struct{}{}
		}
		s.tables[table] = set
	}
	return s
}

// Load inspects every table and captures the result
func Load(ctx context.Context, inspector Inspector, tables ...string) (*Snapshot, error) {
	columns := make(map[string][]string, len(tables))
	for _, table := range tables {
		cols, err := inspector.Columns(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to load schema snapshot: %w", err)
		}
		columns[table] = cols
	}
	return NewSnapshot(columns), nil
}

// HasColumn reports whether table has column. Unknown tables have no columns.
func (s *Snapshot) HasColumn(table, column string) bool {
	if s == nil {
		return false
	}
	_, ok := s.tables[table][column]
	return ok
}

// HasTable reports whether table was captured
func (s *Snapshot) HasTable(table string) bool {
	if s == nil {
		return false
	}
	_, ok := s.tables[table]
	return ok
}
