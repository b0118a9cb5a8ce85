// Package search compiles untrusted request parameters into query criteria.
//
// # Overview
//
// RequestCriteria turns a Params bundle (free-text and per-field search, a
// field filter, join mode, multi-column and relation-qualified sorting,
// projection, and eager-load hints) into where groups, joins, ordering and
// projection on a query.Query. It is an ordinary criteria.Criteria and can be
// pushed, popped and skipped like any other.
//
// Malformed input never fails compilation. Fields, values and directives
// that cannot be used are dropped, counted in the fields-skipped metric and
// logged at debug level.
//
// # Search Syntax
//
// Free text against every searchable field:
//
//	search=john
//
// Per-field values, with free text for the remaining fields:
//
//	search=name:john;email:gmail.com
//	search=john;role:admin
//
// Narrow the searchable fields and switch an operator:
//
//	search=john&searchFields=name;email:like
//
// Require every predicate to match:
//
//	search=name:john;email:john&searchJoin=and
//
// # Operators
//
// Searchable fields are declared as "field" or "field:operator" with
// operators =, like, ilike, in and between. "in" takes a comma list and
// "between" a "low,high" pair; neither uses free text. Dotted fields such as
// "posts.title" are matched through an EXISTS sub-query over the relation.
//
// # Sorting
//
//	orderBy=name&sortedBy=desc
//	orderBy=name;created_at&sortedBy=asc;desc
//	orderBy=posts|title
//	orderBy=posts:author_id|title
//	orderBy=posts:author_id,uuid|title
//
// A relation directive LEFT JOINs the related table, orders by its column
// and re-selects the base table's columns.
//
// # Usage Example
//
//	params := search.ParamsFromValues(r.URL.Query())
//	repo.PushCriteria(search.NewRequestCriteria(params, search.Options{Logger: logger}))
//	rows, err := repo.All(ctx)
//
// # Related Packages
//
//   - pkg/criteria: Criteria contract, chain and registry
//   - pkg/query: Query handle the compiler mutates
//   - pkg/repository: Applies the chain before execution
package search
