package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/querykit/pkg/query"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(
		&Entity{
			Name:       "users",
			Searchable: []string{"name", "email:like"},
			Relations: map[string]*Relation{
				"posts":   {Kind: HasMany, Entity: "posts"},
				"profile": {Kind: HasOne, Table: "profiles", LocalKey: "uuid"},
				"company": {Kind: BelongsTo, Entity: "companies"},
			},
		},
		&Entity{
			Name: "posts",
			Relations: map[string]*Relation{
				"comments": {Entity: "comments", ForeignKey: "article_id"},
			},
		},
		&Entity{Name: "comments"},
		&Entity{Name: "companies", Table: "organisations", PrimaryKey: "org_id"},
	)
	require.NoError(t, err)
	return catalog
}

func TestNewCatalog_Defaults(t *testing.T) {
	catalog := testCatalog(t)

	users, ok := catalog.Entity("users")
	require.True(t, ok)
	assert.Equal(t, "users", users.Table)
	assert.Equal(t, "id", users.PrimaryKey)

	posts := users.Relations["posts"]
	assert.Equal(t, "posts", posts.Name)
	assert.Equal(t, "posts", posts.Table)

	comments, _ := catalog.Entity("posts")
	assert.Equal(t, HasMany, comments.Relations["comments"].Kind)

	company := users.Relations["company"]
	assert.Equal(t, "organisations", company.Table)

	assert.Equal(t, []string{"users", "posts", "comments", "organisations", "profiles"}, catalog.Tables())
}

func TestNewCatalog_Errors(t *testing.T) {
	tests := []struct {
		name     string
		entities []*Entity
	}{
		{"missing name", []*Entity{{Table: "x"}}},
		{"duplicate", []*Entity{{Name: "a"}, {Name: "a"}}},
		{"bad table", []*Entity{{Name: "a", Table: "a; drop"}}},
		{"unknown target", []*Entity{{Name: "a", Relations: map[string]*Relation{"b": {Entity: "b"}}}}},
		{"bad kind", []*Entity{{Name: "a", Relations: map[string]*Relation{"b": {Kind: "many_to_many"}}}}},
		{"bad key", []*Entity{{Name: "a", Relations: map[string]*Relation{"b": {ForeignKey: "x y"}}}}},
		{"nil relation", []*Entity{{Name: "a", Relations: map[string]*Relation{"b": nil}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.entities...)
			assert.Error(t, err)
		})
	}
}

func TestCatalog_ResolveHasMany(t *testing.T) {
	catalog := testCatalog(t)
	users, _ := catalog.Entity("users")

	links, ok := catalog.Resolve(users, "posts")
	require.True(t, ok)
	require.Len(t, links, 1)
	assert.Equal(t, "posts", links[0].Table())
	assert.Equal(t, query.Hop{Table: "posts", Left: "posts.user_id", Right: "users.id"}, links[0].Hop())
}

func TestCatalog_ResolveHasOneCustomLocalKey(t *testing.T) {
	catalog := testCatalog(t)
	users, _ := catalog.Entity("users")

	links, ok := catalog.Resolve(users, "profile")
	require.True(t, ok)
	assert.Equal(t, query.Hop{Table: "profiles", Left: "profiles.user_id", Right: "users.uuid"}, links[0].Hop())
}

func TestCatalog_ResolveBelongsTo(t *testing.T) {
	catalog := testCatalog(t)
	users, _ := catalog.Entity("users")

	links, ok := catalog.Resolve(users, "company")
	require.True(t, ok)
	assert.Equal(t, query.Hop{Table: "organisations", Left: "organisations.org_id", Right: "users.company_id"}, links[0].Hop())
}

func TestCatalog_ResolveNested(t *testing.T) {
	catalog := testCatalog(t)
	users, _ := catalog.Entity("users")

	links, ok := catalog.Resolve(users, "posts.comments")
	require.True(t, ok)
	require.Len(t, links, 2)
	assert.Equal(t, query.Hop{Table: "comments", Left: "comments.article_id", Right: "posts.id"}, links[1].Hop())
}

func TestCatalog_ResolveUnknown(t *testing.T) {
	catalog := testCatalog(t)
	users, _ := catalog.Entity("users")

	for _, path := range []string{"", "roles", "posts.likes", "profile.avatar"} {
		_, ok := catalog.Resolve(users, path)
		assert.False(t, ok, path)
	}
}

func TestForeignKeyFor(t *testing.T) {
	assert.Equal(t, "post_id", ForeignKeyFor("posts"))
	assert.Equal(t, "category_id", ForeignKeyFor("categories"))
	assert.Equal(t, "person_id", ForeignKeyFor("people"))
	assert.Equal(t, "user_id", ForeignKeyFor("user"))
}
