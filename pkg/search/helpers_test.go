package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/querykit/pkg/query"
	"github.com/platinummonkey/querykit/pkg/schema"
)

// testRepo resolves columns and relations from a fixed catalog
type testRepo struct {
	entity   *schema.Entity
	catalog  *schema.Catalog
	snapshot *schema.Snapshot
}

func (r testRepo) Table() string              { return r.entity.Table }
func (r testRepo) SearchableFields() []string { return r.entity.Searchable }

func (r testRepo) HasColumn(table, column string) bool {
	return r.snapshot.HasColumn(table, column)
}

func (r testRepo) ResolveRelation(path string) ([]schema.Link, bool) {
	return r.catalog.Resolve(r.entity, path)
}

func newTestRepo(t *testing.T, searchable ...string) testRepo {
	t.Helper()
	catalog, err := schema.NewCatalog(
		&schema.Entity{
			Name:       "users",
			Searchable: searchable,
			Relations: map[string]*schema.Relation{
				"posts":   {Kind: schema.HasMany, Entity: "posts"},
				"company": {Kind: schema.BelongsTo, Entity: "companies"},
			},
		},
		&schema.Entity{
			Name: "posts",
			Relations: map[string]*schema.Relation{
				"comments": {Entity: "comments"},
			},
		},
		&schema.Entity{Name: "comments"},
		&schema.Entity{Name: "companies"},
	)
	require.NoError(t, err)

	users, _ := catalog.Entity("users")
	return testRepo{
		entity:  users,
		catalog: catalog,
		snapshot: schema.NewSnapshot(map[string][]string{
			"users":     {"id", "name", "email", "age", "role", "company_id", "post_id"},
			"posts":     {"id", "user_id", "title", "published"},
			"comments":  {"id", "post_id", "body"},
			"companies": {"id", "name"},
		}),
	}
}

func render(t *testing.T, q *query.Query) (string, []interface{}) {
	t.Helper()
	sql, args, err := q.ToSQL(query.Postgres)
	require.NoError(t, err)
	return sql, args
}
