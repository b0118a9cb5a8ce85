package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/querykit/pkg/schema"
)

const fixture = `
CREATE TABLE companies (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	age INTEGER,
	role TEXT,
	company_id INTEGER
);
CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER, title TEXT, published INTEGER DEFAULT 0);

INSERT INTO companies (id, name) VALUES (1, 'Acme'), (2, 'Globex');
INSERT INTO users (id, name, email, age, role, company_id) VALUES
	(1, 'alice', 'alice@example.com', 30, 'admin', 1),
	(2, 'bob', 'bob@example.com', 25, 'editor', 1),
	(3, 'carol', 'carol@test.org', 41, 'viewer', 2),
	(4, 'dave', 'dave@example.com', 19, 'viewer', NULL);
INSERT INTO posts (id, user_id, title, published) VALUES
	(1, 1, 'Go generics', 1),
	(2, 1, 'SQL tips', 0),
	(3, 3, 'Hello', 1);
`

func testCatalog(t *testing.T, userCriteria ...string) *schema.Catalog {
	t.Helper()
	catalog, err := schema.NewCatalog(
		&schema.Entity{
			Name:       "users",
			Searchable: []string{"name", "email:like", "role:in", "age:between", "posts.title:like"},
			Criteria:   userCriteria,
			Relations: map[string]*schema.Relation{
				"posts":   {Kind: schema.HasMany, Entity: "posts"},
				"company": {Kind: schema.BelongsTo, Entity: "companies"},
			},
		},
		&schema.Entity{Name: "posts"},
		&schema.Entity{Name: "companies"},
	)
	require.NoError(t, err)
	return catalog
}

// openFixture creates a file-backed SQLite database so every pooled
// connection sees the same data
func openFixture(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "fixture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(fixture)
	require.NoError(t, err)
	return db
}

func newFixtureRepo(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	db := openFixture(t)
	catalog := testCatalog(t)
	snapshot, err := schema.Load(context.Background(), schema.NewSQLiteInspector(db), catalog.Tables()...)
	require.NoError(t, err)

	repo, err := New(db, catalog, "users", snapshot, opts...)
	require.NoError(t, err)
	return repo
}

func names(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r["name"].(string))
	}
	return out
}
