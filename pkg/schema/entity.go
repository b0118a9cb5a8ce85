package schema

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/platinummonkey/querykit/pkg/query"
)

// RelationKind describes which side of a relation holds the foreign key
type RelationKind string

const (
	HasMany   RelationKind = "has_many"
	HasOne    RelationKind = "has_one"
	BelongsTo RelationKind = "belongs_to"
)

// Relation is a named link from an entity to another table
type Relation struct {
	Name string       `yaml:"-"`
	Kind RelationKind `yaml:"kind"`
	// Entity names the related entity in the catalog; required for nested paths
	Entity string `yaml:"entity"`
	Table  string `yaml:"table"`
	// ForeignKey lives on the related table for has_* and on the parent for belongs_to
	ForeignKey string `yaml:"foreign_key"`
	// LocalKey is the parent key for has_* and the related owner key for belongs_to
	LocalKey string `yaml:"local_key"`
}

// Entity describes a table that repositories can query
type Entity struct {
	Name       string               `yaml:"name"`
	Table      string               `yaml:"table"`
	PrimaryKey string               `yaml:"primary_key"`
	Searchable []string             `yaml:"searchable"`
	Criteria   []string             `yaml:"criteria"`
	Relations  map[string]*Relation `yaml:"relations"`
}

// Link is a relation resolved against its parent entity
type Link struct {
	Relation *Relation
	// ParentTable is the table the relation hangs off
	ParentTable string
	// RelatedKey and ParentKey are the unqualified join columns
	RelatedKey string
	ParentKey  string
}

// Table returns the related table
func (l Link) Table() string {
	return l.Relation.Table
}

// Hop converts l into a query hop for has-relation sub-queries
func (l Link) Hop() query.Hop {
	return query.Hop{
		Table: l.Relation.Table,
		Left:  l.Relation.Table + "." + l.RelatedKey,
		Right: l.ParentTable + "." + l.ParentKey,
	}
}

// Catalog holds every entity known to the process
type Catalog struct {
	entities map[string]*Entity
	order    []string
}

// NewCatalog creates a catalog from entities, filling defaults and
// validating relation targets
func NewCatalog(entities ...*Entity) (*Catalog, error) {
	c := &Catalog{entities: make(map[string]*Entity)}
	for _, e := range entities {
		if err := c.add(e); err != nil {
			return nil, err
		}
	}
	if err := c.link(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) add(e *Entity) error {
	if e == nil || e.Name == "" {
		return fmt.Errorf("entity name is required")
	}
	if _, exists := c.entities[e.Name]; exists {
		return fmt.Errorf("duplicate entity: %s", e.Name)
	}
	if e.Table == "" {
		e.Table = e.Name
	}
	if e.PrimaryKey == "" {
		e.PrimaryKey = "id"
	}
	if !query.IsIdentifier(e.Table) || !query.IsIdentifier(e.PrimaryKey) {
		return fmt.Errorf("entity %s: invalid table or primary key", e.Name)
	}
	c.entities[e.Name] = e
	c.order = append(c.order, e.Name)
	return nil
}

func (c *Catalog) link() error {
	for _, name := range c.order {
		e := c.entities[name]
		for relName, rel := range e.Relations {
			if rel == nil {
				return fmt.Errorf("entity %s: relation %s is empty", e.Name, relName)
			}
			rel.Name = relName
			if rel.Kind == "" {
				rel.Kind = HasMany
			}
			switch rel.Kind {
			case HasMany, HasOne, BelongsTo:
			default:
				return fmt.Errorf("entity %s: relation %s has invalid kind %q", e.Name, relName, rel.Kind)
			}
			if rel.Entity != "" {
				target, ok := c.entities[rel.Entity]
				if !ok {
					return fmt.Errorf("entity %s: relation %s targets unknown entity %s", e.Name, relName, rel.Entity)
				}
				if rel.Table == "" {
					rel.Table = target.Table
				}
			}
			if rel.Table == "" {
				rel.Table = relName
			}
			for _, ident := range []string{rel.Table, rel.ForeignKey, rel.LocalKey} {
				if ident != "" && !query.IsIdentifier(ident) {
					return fmt.Errorf("entity %s: relation %s has invalid identifier %q", e.Name, relName, ident)
				}
			}
		}
	}
	return nil
}

// Entity returns the named entity
func (c *Catalog) Entity(name string) (*Entity, bool) {
	e, ok := c.entities[name]
	return e, ok
}

// Entities returns all entities in registration order
func (c *Catalog) Entities() []*Entity {
	out := make([]*Entity, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.entities[name])
	}
	return out
}

// Tables returns every table referenced by the catalog, entities first
func (c *Catalog) Tables() []string {
	seen := make(map[string]bool)
	var tables []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			tables = append(tables, t)
		}
	}
	for _, e := range c.Entities() {
		add(e.Table)
	}
	for _, e := range c.Entities() {
		for _, rel := range e.Relations {
			add(rel.Table)
		}
	}
	return tables
}

// Resolve walks a dotted relation path starting at e. Every segment but the
// last must target a catalog entity so the walk can continue.
func (c *Catalog) Resolve(e *Entity, path string) ([]Link, bool) {
	if e == nil || path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	links := make([]Link, 0, len(segments))
	current := e
	for i, seg := range segments {
		rel, ok := current.Relations[seg]
		if !ok || rel == nil {
			return nil, false
		}
		var target *Entity
		if rel.Entity != "" {
			target = c.entities[rel.Entity]
		}
		links = append(links, linkFor(current, rel, target))
		if i == len(segments)-1 {
			break
		}
		if target == nil {
			return nil, false
		}
		current = target
	}
	return links, true
}

func linkFor(parent *Entity, rel *Relation, target *Entity) Link {
	link := Link{Relation: rel, ParentTable: parent.Table}
	switch rel.Kind {
	case BelongsTo:
		link.ParentKey = rel.ForeignKey
		if link.ParentKey == "" {
			link.ParentKey = ForeignKeyFor(rel.Name)
		}
		link.RelatedKey = rel.LocalKey
		if link.RelatedKey == "" {
			link.RelatedKey = "id"
			if target != nil {
				link.RelatedKey = target.PrimaryKey
			}
		}
	default:
		link.RelatedKey = rel.ForeignKey
		if link.RelatedKey == "" {
			link.RelatedKey = ForeignKeyFor(parent.Table)
		}
		link.ParentKey = rel.LocalKey
		if link.ParentKey == "" {
			link.ParentKey = parent.PrimaryKey
		}
	}
	return link
}

// Singular returns the singular form of an English table name
func Singular(name string) string {
	return inflection.Singular(name)
}

// ForeignKeyFor derives the conventional "<singular>_id" column for a table
func ForeignKeyFor(table string) string {
	return Singular(table) + "_id"
}
