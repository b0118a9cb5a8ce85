package criteria

import (
	"reflect"

	"github.com/platinummonkey/querykit/pkg/query"
	"github.com/platinummonkey/querykit/pkg/schema"
)

// Repository is what a criterion may ask of the repository applying it
type Repository interface {
	// Table is the base table of the query being built
	Table() string
	// SearchableFields lists "field" or "field:operator" entries in declaration order
	SearchableFields() []string
	// HasColumn reports whether table has column
	HasColumn(table, column string) bool
	// ResolveRelation resolves a dotted relation path from the base entity
	ResolveRelation(path string) ([]schema.Link, bool)
}

// Criteria is a unit of query mutation
type Criteria interface {
	Apply(q *query.Query, repo Repository) *query.Query
}

// Func adapts a plain function to Criteria
type Func func(q *query.Query, repo Repository) *query.Query

// Apply calls f
func (f Func) Apply(q *query.Query, repo Repository) *query.Query {
	return f(q, repo)
}

// Kind identifies a family of criteria; Pop removes by kind
type Kind string

// Kinded is implemented by criteria that carry an explicit kind tag
type Kinded interface {
	Kind() Kind
}

// KindOf returns the explicit kind of c, or its fully qualified Go type
// name when it has none
func KindOf(c Criteria) Kind {
	if c == nil {
		return ""
	}
	if k, ok := c.(Kinded); ok {
		return k.Kind()
	}
	t := reflect.TypeOf(c)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return Kind(t.String())
	}
	return Kind(t.PkgPath() + "." + t.Name())
}

// Tagged attaches an explicit kind to a criterion
func Tagged(kind Kind, c Criteria) Criteria {
	return tagged{kind: kind, Criteria: c}
}

type tagged struct {
	Criteria
	kind Kind
}

func (t tagged) Kind() Kind { return t.kind }
