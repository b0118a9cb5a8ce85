package search

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/platinummonkey/querykit/pkg/criteria"
	"github.com/platinummonkey/querykit/pkg/query"
)

// Predicate is one resolved search condition
type Predicate struct {
	// Field is the leaf column
	Field string
	// Relation is the dotted relation path, empty for the base table
	Relation string
	Operator string
	Values   []string
	// Table holds Field; it is the last relation's table when Relation is set
	Table string
	// Hops lead from the base table to Table
	Hops []query.Hop
}

// Column returns the table-qualified leaf column
func (p Predicate) Column() string {
	return p.Table + "." + p.Field
}

// ToSql renders the predicate, wrapped in nested EXISTS sub-queries when it
// targets a relation
func (p Predicate) ToSql() (string, []interface{}, error) {
	column := p.Column()

	var cond sq.Sqlizer
	switch p.Operator {
	case OpIn:
		cond = sq.Eq{column: p.Values}
	case OpBetween:
		cond = query.Between(column, p.Values[0], p.Values[1])
	case OpLike:
		cond = sq.Like{column: p.Values[0]}
	case OpILike:
		cond = sq.ILike{column: p.Values[0]}
	default:
		cond = sq.Eq{column: p.Values[0]}
	}

	if len(p.Hops) > 0 {
		cond = query.Exists(p.Hops, cond)
	}
	return cond.ToSql()
}

// BuildPredicates resolves a value for every field of the working set and
// keeps the fields whose column exists. Fields without a usable value, with
// an unknown relation, or absent from the schema are left out.
func BuildPredicates(fields []FieldSpec, term SearchTerm, repo criteria.Repository) []Predicate {
	return buildPredicates(fields, term, repo, nopReporter)
}

func buildPredicates(fields []FieldSpec, term SearchTerm, repo criteria.Repository, rep reporter) []Predicate {
	var preds []Predicate
	for _, f := range fields {
		op := NormalizeOperator(f.Operator)

		var value string
		if v, ok := term.FieldValues[f.Field]; ok {
			value = v
		} else if term.FreeText != nil && op != OpIn && op != OpBetween {
			value = *term.FreeText
		} else {
			rep.skip(f.Field, ReasonUnresolvedValue)
			continue
		}
		if op == OpLike || op == OpILike {
			value = "%" + value + "%"
		}

		relation, leaf := splitField(f.Field)

		values := []string{value}
		switch op {
		case OpIn:
			values = strings.Split(value, ",")
			if strings.TrimSpace(values[0]) == "" || values[0] == leaf {
				rep.skip(f.Field, ReasonUnresolvedValue)
				continue
			}
		case OpBetween:
			values = strings.Split(value, ",")
			if len(values) < 2 {
				rep.skip(f.Field, ReasonUnresolvedValue)
				continue
			}
		}

		if !query.IsIdentifier(leaf) {
			rep.skip(f.Field, ReasonInvalidIdentifier)
			continue
		}

		pred := Predicate{
			Field:    leaf,
			Relation: relation,
			Operator: op,
			Values:   values,
			Table:    repo.Table(),
		}
		if relation != "" {
			links, ok := repo.ResolveRelation(relation)
			if !ok || len(links) == 0 {
				rep.skip(f.Field, ReasonUnknownRelation)
				continue
			}
			pred.Table = links[len(links)-1].Table()
			for _, link := range links {
				pred.Hops = append(pred.Hops, link.Hop())
			}
		}

		if !repo.HasColumn(pred.Table, leaf) {
			rep.skip(f.Field, ReasonUnknownColumn)
			continue
		}

		rep.predicate(op)
		preds = append(preds, pred)
	}
	return preds
}

// Combine joins predicates into one group: all must match when forceAnd is
// set, otherwise any may. It returns nil for no predicates.
func Combine(preds []Predicate, forceAnd bool) sq.Sqlizer {
	if len(preds) == 0 {
		return nil
	}
	parts := make([]sq.Sqlizer, len(preds))
	for i, p := range preds {
		parts[i] = p
	}
	if forceAnd {
		return sq.And(parts)
	}
	return sq.Or(parts)
}

// splitField splits "a.b.column" into ("a.b", "column")
func splitField(field string) (relation, leaf string) {
	i := strings.LastIndex(field, ".")
	if i <= 0 {
		return "", field
	}
	return field[:i], field[i+1:]
}
