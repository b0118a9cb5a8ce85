package search

import (
	"net/url"
	"strings"
)

// Params is the bundle of request parameters the compiler reads. It is
// the only input to compilation; nothing is read from ambient state.
type Params struct {
	// Search is "field:value;field:value" and/or bare free text
	Search string
	// SearchFields narrows the searchable fields, each "field" or "field:operator"
	SearchFields []string
	// SearchJoin set to "and" (any case) forces AND between predicates
	SearchJoin string
	// OrderBy is "directive;directive", each "column" or "relation[:keys]|column"
	OrderBy string
	// SortedBy is "dir;dir", paired positionally with OrderBy
	SortedBy string
	// Filter lists projected columns
	Filter []string
	// With is "relation;relation" to eager load
	With string
	// WithCount is "relation;relation" whose row counts are loaded
	WithCount string
}

// Recognized parameter names
const (
	ParamSearch       = "search"
	ParamSearchFields = "searchFields"
	ParamSearchJoin   = "searchJoin"
	ParamOrderBy      = "orderBy"
	ParamSortedBy     = "sortedBy"
	ParamFilter       = "filter"
	ParamWith         = "with"
	ParamWithCount    = "withCount"
)

// ParamsFromValues reads the recognized parameters from decoded query
// values. List parameters accept repeated keys, "key[]" keys, or a single
// ";"-separated value.
func ParamsFromValues(values url.Values) Params {
	return Params{
		Search:       values.Get(ParamSearch),
		SearchFields: listValue(values, ParamSearchFields),
		SearchJoin:   values.Get(ParamSearchJoin),
		OrderBy:      values.Get(ParamOrderBy),
		SortedBy:     values.Get(ParamSortedBy),
		Filter:       listValue(values, ParamFilter),
		With:         values.Get(ParamWith),
		WithCount:    values.Get(ParamWithCount),
	}
}

// Values encodes p back into query values
func (p Params) Values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set(ParamSearch, p.Search)
	set(ParamSearchFields, strings.Join(p.SearchFields, ";"))
	set(ParamSearchJoin, p.SearchJoin)
	set(ParamOrderBy, p.OrderBy)
	set(ParamSortedBy, p.SortedBy)
	set(ParamFilter, strings.Join(p.Filter, ";"))
	set(ParamWith, p.With)
	set(ParamWithCount, p.WithCount)
	return values
}

// ForceAnd reports whether every resolved predicate must match
func (p Params) ForceAnd() bool {
	return strings.EqualFold(strings.TrimSpace(p.SearchJoin), "and")
}

// SplitList splits a ";"-separated list, trimming entries and dropping empty ones
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func listValue(values url.Values, key string) []string {
	raw := append(append([]string(nil), values[key]...), values[key+"[]"]...)
	var out []string
	for _, v := range raw {
		out = append(out, SplitList(v)...)
	}
	return out
}
