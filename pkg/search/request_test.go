package search

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/querykit/pkg/criteria"
	"github.com/platinummonkey/querykit/pkg/observability"
	"github.com/platinummonkey/querykit/pkg/query"
)

func applyParams(t *testing.T, repo testRepo, p Params) *query.Query {
	t.Helper()
	return NewRequestCriteria(p, Options{}).Apply(query.New(repo.Table()), repo)
}

func TestRequestCriteria_Kind(t *testing.T) {
	c := NewRequestCriteria(Params{Search: "x"}, Options{})
	assert.Equal(t, Kind, criteria.KindOf(c))
	assert.Equal(t, "x", c.Params().Search)
}

func TestRequestCriteria_SearchAndSort(t *testing.T) {
	repo := newTestRepo(t, "name", "email:like")

	q := applyParams(t, repo, Params{
		Search:   "john",
		OrderBy:  "posts|title;name",
		SortedBy: "desc",
	})

	sql, args := render(t, q)
	assert.Equal(t, "SELECT users.* FROM users LEFT JOIN posts ON users.post_id = posts.id "+
		"WHERE (users.name = $1 OR users.email LIKE $2) ORDER BY posts.title DESC, users.name DESC", sql)
	assert.Equal(t, []interface{}{"john", "%john%"}, args)
}

func TestRequestCriteria_SearchFieldsNarrowing(t *testing.T) {
	repo := newTestRepo(t, "name", "email:like", "role")

	q := applyParams(t, repo, Params{
		Search:       "john;role:admin",
		SearchFields: []string{"name:like"},
		SearchJoin:   "AND",
	})

	sql, args := render(t, q)
	assert.Equal(t, "SELECT * FROM users WHERE (users.name LIKE $1 AND users.role = $2)", sql)
	assert.Equal(t, []interface{}{"%john%", "admin"}, args)
}

func TestRequestCriteria_EmptySearchSkipsPredicates(t *testing.T) {
	repo := newTestRepo(t, "name")

	sql, _ := render(t, applyParams(t, repo, Params{}))
	assert.Equal(t, "SELECT * FROM users", sql)
}

func TestRequestCriteria_NoSearchableFields(t *testing.T) {
	repo := newTestRepo(t)

	sql, _ := render(t, applyParams(t, repo, Params{Search: "name:john"}))
	assert.Equal(t, "SELECT * FROM users", sql)
}

func TestRequestCriteria_ProjectionAndEager(t *testing.T) {
	repo := newTestRepo(t, "name")

	q := applyParams(t, repo, Params{
		Filter:    []string{"id;name", "bad column", "users.email"},
		With:      "posts;company;drop table",
		WithCount: "posts",
	})

	sql, _ := render(t, q)
	assert.Equal(t, "SELECT id, name, users.email FROM users", sql)
	assert.Equal(t, []string{"posts", "company"}, q.Eager())
	assert.Equal(t, []string{"posts"}, q.EagerCount())
}

func TestRequestCriteria_ProjectionReplacesRelationSelect(t *testing.T) {
	repo := newTestRepo(t)

	q := applyParams(t, repo, Params{OrderBy: "posts|title", Filter: []string{"users.id", "posts.title"}})
	sql, _ := render(t, q)
	assert.Equal(t, "SELECT users.id, posts.title FROM users LEFT JOIN posts ON users.post_id = posts.id ORDER BY posts.title ASC", sql)
}

func TestRequestCriteria_JoinQualifiesBareColumns(t *testing.T) {
	repo := newTestRepo(t)

	q := applyParams(t, repo, Params{
		OrderBy:  "id;posts|title",
		SortedBy: "desc",
		Filter:   []string{"id;name;*;posts.title"},
	})
	sql, _ := render(t, q)
	assert.Equal(t, "SELECT users.id, users.name, users.*, posts.title FROM users "+
		"LEFT JOIN posts ON users.post_id = posts.id ORDER BY users.id DESC, posts.title DESC", sql)

	q = applyParams(t, repo, Params{OrderBy: "id", Filter: []string{"id"}})
	sql, _ = render(t, q)
	assert.Equal(t, "SELECT id FROM users ORDER BY id ASC", sql)
}

func TestRequestCriteria_Idempotent(t *testing.T) {
	repo := newTestRepo(t, "name", "email:like")
	c := NewRequestCriteria(Params{Search: "john", OrderBy: "name"}, Options{})

	first, firstArgs := render(t, c.Apply(query.New("users"), repo))
	second, secondArgs := render(t, c.Apply(query.New("users"), repo))
	assert.Equal(t, first, second)
	assert.Equal(t, firstArgs, secondArgs)
}

func TestRequestCriteria_SchemaMembershipAcrossInputs(t *testing.T) {
	repo := newTestRepo(t, "name", "ghost", "email:like", "posts.ghost", "age:between")

	searches := []string{"x", "ghost:1", "x;ghost:1", "name:a;ghost:b", "posts.ghost:1", "age:1,2;ghost:3"}
	fieldLists := [][]string{nil, {"ghost"}, {"ghost:like"}, {"name", "ghost"}, {"posts.ghost"}}
	joins := []string{"", "and"}

	for _, s := range searches {
		for _, fl := range fieldLists {
			for _, j := range joins {
				sql, _ := render(t, applyParams(t, repo, Params{Search: s, SearchFields: fl, SearchJoin: j}))
				assert.False(t, strings.Contains(sql, "ghost"), "search=%q fields=%v join=%q: %s", s, fl, j, sql)
			}
		}
	}
}

func TestRequestCriteria_Instrumentation(t *testing.T) {
	repo := newTestRepo(t, "name", "nickname", "age:between")
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.DebugLevel, &buf)

	c := NewRequestCriteria(Params{Search: "john", OrderBy: "1bad"}, Options{Logger: logger, Metrics: metrics})
	c.Apply(query.New("users"), repo)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PredicatesTotal.WithLabelValues("=")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FieldsSkippedTotal.WithLabelValues(ReasonUnknownColumn)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FieldsSkippedTotal.WithLabelValues(ReasonUnresolvedValue)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FieldsSkippedTotal.WithLabelValues(ReasonInvalidIdentifier)))
	assert.Contains(t, buf.String(), "search: dropped from query")
	assert.Contains(t, buf.String(), "nickname")
}

func TestRegister(t *testing.T) {
	repo := newTestRepo(t, "name")
	reg := criteria.NewRegistry()

	current := Params{Search: "john"}
	require.NoError(t, Register(reg, func() Params { return current }, Options{}))
	assert.ErrorIs(t, Register(reg, nil, Options{}), criteria.ErrDuplicateKind)

	chain, err := reg.Chain(Kind)
	require.NoError(t, err)
	sql, args := render(t, chain.Apply(query.New("users"), repo))
	assert.Equal(t, "SELECT * FROM users WHERE (users.name = $1)", sql)
	assert.Equal(t, []interface{}{"john"}, args)

	chain.Skip(true)
	sql, _ = render(t, chain.Apply(query.New("users"), repo))
	assert.Equal(t, "SELECT * FROM users", sql)

	chain.Skip(false).Pop(NewRequestCriteria(Params{}, Options{}))
	assert.Equal(t, 0, chain.Len())
}

func TestRegister_NilSource(t *testing.T) {
	reg := criteria.NewRegistry()
	require.NoError(t, Register(reg, nil, Options{}))

	c, err := reg.New(Kind)
	require.NoError(t, err)
	assert.Equal(t, Params{}, c.(*RequestCriteria).Params())
}
