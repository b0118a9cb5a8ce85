package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/querykit/pkg/criteria"
	"github.com/platinummonkey/querykit/pkg/observability"
	"github.com/platinummonkey/querykit/pkg/query"
	"github.com/platinummonkey/querykit/pkg/schema"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrUnknownColumn is returned when a caller names a column the entity does not have
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNoValues is returned when a write or IN lookup has nothing to work with
	ErrNoValues = errors.New("no values given")
)

// DefaultPerPage is the page size used when Paginate is given none
const DefaultPerPage = 5

// Record is one row keyed by column name. Eager-loaded relations are stored
// under the relation name and counts under "<relation>_count".
type Record map[string]interface{}

// Page is one page of results
type Page struct {
	Data        []Record `json:"data"`
	Total       int64    `json:"total"`
	PerPage     int      `json:"per_page"`
	CurrentPage int      `json:"current_page"`
	LastPage    int      `json:"last_page"`
}

// Repository executes queries for one entity, applying its criteria chain
// to every read. The chain is not safe for concurrent mutation; build one
// repository per request when criteria depend on the request.
type Repository struct {
	db       *sqlx.DB
	reader   func() *sqlx.DB
	entity   *schema.Entity
	catalog  *schema.Catalog
	snapshot *schema.Snapshot
	dialect  query.Dialect
	chain    *criteria.Chain
	registry *criteria.Registry
	boot     []criteria.Criteria
	logger   *observability.Logger
	metrics  *observability.Metrics
	provider trace.TracerProvider
	tracer   trace.Tracer
}

// Option configures a Repository
type Option func(*Repository)

// WithRegistry sets the registry used to construct the entity's declared criteria
func WithRegistry(reg *criteria.Registry) Option {
	return func(r *Repository) { r.registry = reg }
}

// WithDialect overrides the dialect derived from the connection's driver name
func WithDialect(d query.Dialect) Option {
	return func(r *Repository) { r.dialect = d }
}

// WithLogger sets the logger
func WithLogger(l *observability.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Repository) { r.metrics = m }
}

// WithCriteria pushes criteria after the entity's declared ones
func WithCriteria(items ...criteria.Criteria) Option {
	return func(r *Repository) { r.boot = append(r.boot, items...) }
}

// WithReader routes reads through reader, typically ConnectionManager.Replica
func WithReader(reader func() *sqlx.DB) Option {
	return func(r *Repository) { r.reader = reader }
}

// WithTracerProvider sets the provider spans are created from
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Repository) { r.provider = tp }
}

// New creates a repository for the named catalog entity. Writes use db;
// reads use db unless WithReader is given. Criteria kinds declared on the
// entity are constructed from the registry and pushed in order.
func New(db *sqlx.DB, catalog *schema.Catalog, entity string, snapshot *schema.Snapshot, opts ...Option) (*Repository, error) {
	if db == nil || catalog == nil || snapshot == nil {
		return nil, fmt.Errorf("repository %s: db, catalog and snapshot are required", entity)
	}
	e, ok := catalog.Entity(entity)
	if !ok {
		return nil, fmt.Errorf("repository: unknown entity %s", entity)
	}

	r := &Repository{
		db:       db,
		entity:   e,
		catalog:  catalog,
		snapshot: snapshot,
		chain:    criteria.NewChain(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.dialect == "" {
		d, err := query.ParseDialect(db.DriverName())
		if err != nil {
			return nil, fmt.Errorf("repository %s: %w", entity, err)
		}
		r.dialect = d
	}
	if r.reader == nil {
		r.reader = func() *sqlx.DB { return db }
	}
	if r.logger == nil {
		r.logger = observability.NopLogger()
	}
	r.logger = r.logger.WithField("entity", e.Name)
	r.tracer = observability.Tracer(r.provider)

	if err := r.bootCriteria(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) bootCriteria() error {
	if len(r.entity.Criteria) > 0 && r.registry == nil {
		return fmt.Errorf("repository %s: criteria declared without a registry", r.entity.Name)
	}
	for _, kind := range r.entity.Criteria {
		c, err := r.registry.New(criteria.Kind(kind))
		if err != nil {
			return fmt.Errorf("repository %s: %w", r.entity.Name, err)
		}
		r.chain.Push(c)
	}
	for _, c := range r.boot {
		r.chain.Push(c)
	}
	r.boot = nil
	return nil
}

// Entity returns the entity the repository serves
func (r *Repository) Entity() *schema.Entity {
	return r.entity
}

// Dialect returns the dialect queries are rendered in
func (r *Repository) Dialect() query.Dialect {
	return r.dialect
}

// Table implements criteria.Repository
func (r *Repository) Table() string {
	return r.entity.Table
}

// SearchableFields implements criteria.Repository
func (r *Repository) SearchableFields() []string {
	return r.entity.Searchable
}

// HasColumn implements criteria.Repository
func (r *Repository) HasColumn(table, column string) bool {
	return r.snapshot.HasColumn(table, column)
}

// ResolveRelation implements criteria.Repository
func (r *Repository) ResolveRelation(path string) ([]schema.Link, bool) {
	return r.catalog.Resolve(r.entity, path)
}

// PushCriteria appends c to the chain
func (r *Repository) PushCriteria(c criteria.Criteria) *Repository {
	r.chain.Push(c)
	return r
}

// PopCriteria removes every criterion of the same kind as c
func (r *Repository) PopCriteria(c criteria.Criteria) *Repository {
	r.chain.Pop(c)
	return r
}

// PopCriteriaKind removes every criterion of kind
func (r *Repository) PopCriteriaKind(kind criteria.Kind) *Repository {
	r.chain.PopKind(kind)
	return r
}

// SkipCriteria toggles whether reads apply the chain
func (r *Repository) SkipCriteria(status bool) *Repository {
	r.chain.Skip(status)
	return r
}

// ResetCriteria empties the chain
func (r *Repository) ResetCriteria() *Repository {
	r.chain.Reset()
	return r
}

// GetCriteria returns the chain entries in order
func (r *Repository) GetCriteria() []criteria.Entry {
	return r.chain.Entries()
}

// Query returns the query reads would run, with the chain applied
func (r *Repository) Query() (*query.Query, error) {
	return r.apply(r.chain)
}

// apply runs c against a fresh base query. A panicking criterion becomes an
// error instead of taking the caller down.
func (r *Repository) apply(c criteria.Criteria) (q *query.Query, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("apply criteria: %w", observability.MustRecover(rec))
			r.logger.WithError(err).Error("criteria panicked")
		}
	}()

	base := query.New(r.entity.Table)
	q = c.Apply(base, r)
	if q == nil {
		q = base
	}

	if chain, ok := c.(*criteria.Chain); ok {
		if !chain.Skipped() {
			for _, e := range chain.Entries() {
				r.metrics.CriteriaApplied(string(e.Kind))
			}
		}
	} else {
		r.metrics.CriteriaApplied(string(criteria.KindOf(c)))
	}
	return q, nil
}

// prepare applies the chain and falls back to columns when no criterion
// chose a projection
func (r *Repository) prepare(columns []string) (*query.Query, error) {
	if err := checkSelectors(columns); err != nil {
		return nil, err
	}
	q, err := r.apply(r.chain)
	if err != nil {
		return nil, err
	}
	if len(columns) > 0 && len(q.Columns()) == 0 {
		q.Select(columns...)
	}
	return q, nil
}

func checkSelectors(columns []string) error {
	for _, c := range columns {
		if !query.IsColumnSelector(c) {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
	}
	return nil
}

// column validates a caller-supplied column of the base table and returns
// it qualified
func (r *Repository) column(field string) (string, error) {
	if !query.IsIdentifier(field) {
		return "", fmt.Errorf("%w: %s", ErrUnknownColumn, field)
	}
	name, _ := strings.CutPrefix(field, r.entity.Table+".")
	if !r.snapshot.HasColumn(r.entity.Table, name) {
		return "", fmt.Errorf("%w: %s", ErrUnknownColumn, field)
	}
	return query.Qualify(r.entity.Table, name), nil
}

func (r *Repository) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "repository."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("querykit.entity", r.entity.Name),
			attribute.String("db.system", string(r.dialect)),
		),
	)
}
