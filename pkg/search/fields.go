package search

import "strings"

// Operators accepted in searchable field declarations
const (
	OpEqual   = "="
	OpLike    = "like"
	OpILike   = "ilike"
	OpIn      = "in"
	OpBetween = "between"
)

var operators = map[string]bool{
	OpEqual:   true,
	OpLike:    true,
	OpILike:   true,
	OpIn:      true,
	OpBetween: true,
}

// operators a caller may switch a field to through SearchFields
var overridable = map[string]bool{
	OpEqual: true,
	OpLike:  true,
}

// NormalizeOperator lower-cases and trims op; an empty operator is "="
func NormalizeOperator(op string) string {
	op = strings.ToLower(strings.TrimSpace(op))
	if op == "" {
		return OpEqual
	}
	return op
}

// IsOperator reports whether op is a supported operator after normalization
func IsOperator(op string) bool {
	return operators[NormalizeOperator(op)]
}

// Origin records why a field is in the working set
type Origin int

const (
	// Implicit fields come from the declared set because the caller named none
	Implicit Origin = iota
	// Explicit fields were named by the caller's field list or search term
	Explicit
)

func (o Origin) String() string {
	if o == Explicit {
		return "explicit"
	}
	return "implicit"
}

// FieldSpec is one field of the working set
type FieldSpec struct {
	Field    string
	Operator string
	Origin   Origin
}

// SelectFields computes the working field set from the declared
// searchable fields, the caller's field list and the fields named in the
// search term. The result keeps declaration order and never contains a
// field that was not declared.
func SelectFields(declared, explicit []string, term SearchTerm) []FieldSpec {
	return selectFields(declared, explicit, term, nopReporter)
}

func selectFields(declared, explicit []string, term SearchTerm, rep reporter) []FieldSpec {
	var order []string
	ops := make(map[string]string, len(declared))
	for _, entry := range declared {
		field, op, _ := strings.Cut(entry, ":")
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		op = NormalizeOperator(op)
		if !operators[op] {
			rep.skip(field, ReasonUnsupportedOperator)
			continue
		}
		if _, seen := ops[field]; !seen {
			order = append(order, field)
		}
		ops[field] = op
	}

	if len(explicit) == 0 {
		specs := make([]FieldSpec, 0, len(order))
		for _, field := range order {
			specs = append(specs, FieldSpec{Field: field, Operator: ops[field], Origin: Implicit})
		}
		return specs
	}

	wanted := make(map[string]bool, len(explicit))
	for _, entry := range explicit {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		// an annotated entry with a disallowed operator stays "field:op"
		// and so matches nothing. The operator must match exactly.
		if strings.Count(entry, ":") == 1 {
			field, op, _ := strings.Cut(entry, ":")
			if overridable[op] {
				if _, declared := ops[field]; declared {
					ops[field] = op
				}
				entry = field
			}
		}
		wanted[entry] = true
	}
	for _, field := range term.Named() {
		wanted[field] = true
	}

	var specs []FieldSpec
	for _, field := range order {
		if wanted[field] {
			specs = append(specs, FieldSpec{Field: field, Operator: ops[field], Origin: Explicit})
		}
	}
	return specs
}
