package search

import (
	"github.com/platinummonkey/querykit/pkg/query"
)

// Projection returns the projected columns named by filter. Entries may
// themselves be ";"-separated; anything that is not a column selector is
// dropped.
func Projection(filter []string) []string {
	return projection(filter, nopReporter)
}

func projection(filter []string, rep reporter) []string {
	var cols []string
	for _, entry := range filter {
		for _, col := range SplitList(entry) {
			if !query.IsColumnSelector(col) {
				rep.skip(col, ReasonInvalidIdentifier)
				continue
			}
			cols = append(cols, col)
		}
	}
	return cols
}

// Relations returns the relation names of a with or withCount parameter
func Relations(list string) []string {
	return relations(list, nopReporter)
}

func relations(list string, rep reporter) []string {
	var out []string
	for _, rel := range SplitList(list) {
		if !query.IsIdentifier(rel) {
			rep.skip(rel, ReasonInvalidIdentifier)
			continue
		}
		out = append(out, rel)
	}
	return out
}
