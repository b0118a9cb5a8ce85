package search

import (
	"github.com/platinummonkey/querykit/pkg/criteria"
	"github.com/platinummonkey/querykit/pkg/observability"
	"github.com/platinummonkey/querykit/pkg/query"
)

// Kind is the registry tag of RequestCriteria
const Kind criteria.Kind = "request"

// Options configures RequestCriteria instrumentation. Both fields are optional.
type Options struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// RequestCriteria compiles request parameters into predicates, ordering,
// projection and eager-load directives
type RequestCriteria struct {
	params Params
	rep    reporter
}

// NewRequestCriteria creates a criterion for one set of request parameters
func NewRequestCriteria(params Params, opts Options) *RequestCriteria {
	return &RequestCriteria{
		params: params,
		rep:    reporter{logger: opts.Logger, metrics: opts.Metrics},
	}
}

// Kind implements criteria.Kinded
func (c *RequestCriteria) Kind() criteria.Kind {
	return Kind
}

// Params returns the parameters the criterion compiles
func (c *RequestCriteria) Params() Params {
	return c.params
}

// Apply compiles the parameters onto q. Compilation never fails: anything
// that cannot be used is dropped.
func (c *RequestCriteria) Apply(q *query.Query, repo criteria.Repository) *query.Query {
	p := c.params

	if searchable := repo.SearchableFields(); p.Search != "" && len(searchable) > 0 {
		term := ParseSearchTerm(p.Search)
		fields := selectFields(searchable, p.SearchFields, term, c.rep)
		preds := buildPredicates(fields, term, repo, c.rep)
		q.Where(Combine(preds, p.ForceAnd()))
	}

	directives := parseSort(p.OrderBy, p.SortedBy, repo.Table(), c.rep)
	joined := len(q.Joins()) > 0
	for _, d := range directives {
		joined = joined || d.Join != nil
	}

	// once a join exists bare columns are ambiguous
	for _, d := range directives {
		if joined && d.Join == nil {
			d.Path = query.Qualify(repo.Table(), d.Path)
		}
		d.Apply(q)
	}

	if cols := projection(p.Filter, c.rep); len(cols) > 0 {
		if joined {
			for i, col := range cols {
				cols[i] = query.Qualify(repo.Table(), col)
			}
		}
		q.Select(cols...)
	}

	if rels := relations(p.With, c.rep); len(rels) > 0 {
		q.With(rels...)
	}
	if rels := relations(p.WithCount, c.rep); len(rels) > 0 {
		q.WithCount(rels...)
	}

	return q
}

// ParamsSource supplies the parameters of the current request
type ParamsSource func() Params

// Register adds RequestCriteria to reg under Kind. Each constructed
// criterion compiles the parameters source returns at construction time;
// a nil source yields empty parameters.
func Register(reg *criteria.Registry, source ParamsSource, opts Options) error {
	return reg.Register(Kind, func() criteria.Criteria {
		var params Params
		if source != nil {
			params = source()
		}
		return NewRequestCriteria(params, opts)
	})
}
