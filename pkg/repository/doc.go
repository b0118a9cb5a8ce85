// Package repository runs criteria-compiled queries against a database.
//
// A Repository serves one catalog entity. Every read starts from a fresh
// query over the entity's table, applies the criteria chain in push order
// and then the read's own constraint:
//
//	repo, err := repository.New(cm.Primary(), catalog, "users", snapshot,
//		repository.WithReader(cm.Replica),
//		repository.WithRegistry(registry),
//		repository.WithCriteria(search.NewRequestCriteria(params, search.Options{})),
//	)
//	page, err := repo.Paginate(ctx, 20, 1)
//
// # Reads
//
// All, Paginate, First, Last, Find, FindByField, FindWhere and FindWhereIn
// honour the chain; GetByCriteria applies a single criterion instead. Rows
// are returned as Records. Relations requested with "with" are loaded with
// one IN query each and attached under the relation name; relations in
// "withCount" become "<relation>_count" columns.
//
// # Writes
//
// Create, Update and Delete go to the primary connection. Update and
// Delete first look the row up through the chain, so rows hidden by
// criteria report ErrNotFound instead of being changed.
//
// # Instrumentation
//
// Each statement runs in an OpenTelemetry span named "repository.<op>" and
// is observed on the querykit Prometheus metrics when WithMetrics is given.
package repository
