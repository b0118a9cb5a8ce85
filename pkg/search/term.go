package search

import "strings"

// SearchTerm is a parsed search string
type SearchTerm struct {
	// FieldValues holds every "field:value" group
	FieldValues map[string]string
	// FreeText is the first group without a ":", or nil when every group
	// names a field
	FreeText *string

	named []string
}

// HasFreeText reports whether a free-text value is present
func (t SearchTerm) HasFreeText() bool {
	return t.FreeText != nil
}

// Named returns the explicitly named fields in first-appearance order
func (t SearchTerm) Named() []string {
	return append([]string(nil), t.named...)
}

// ParseSearchTerm splits raw into field values and free text. A string
// without ":" is all free text. Otherwise groups are ";"-separated and each
// "field:value" group is split on its first ":"; the first group without a
// ":" becomes the free text, even when it is empty. Groups with an empty
// field name are skipped and later groups for the same field win.
func ParseSearchTerm(raw string) SearchTerm {
	term := SearchTerm{FieldValues: map[string]string{}}
	if !strings.Contains(raw, ":") {
		text := raw
		term.FreeText = &text
		return term
	}

	for _, group := range strings.Split(raw, ";") {
		field, value, ok := strings.Cut(group, ":")
		if !ok {
			if term.FreeText == nil {
				text := group
				term.FreeText = &text
			}
			continue
		}
		if field == "" {
			continue
		}
		if _, seen := term.FieldValues[field]; !seen {
			term.named = append(term.named, field)
		}
		term.FieldValues[field] = value
	}
	return term
}
