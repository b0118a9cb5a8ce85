package criteria

import "github.com/platinummonkey/querykit/pkg/query"

// Entry is a criterion together with the kind it was pushed under
type Entry struct {
	Kind     Kind
	Criteria Criteria
}

// Chain is an ordered, togglable list of criteria. It is owned by a single
// repository and is not safe for concurrent mutation.
type Chain struct {
	entries []Entry
	skip    bool
}

// NewChain creates a chain holding items in order
func NewChain(items ...Criteria) *Chain {
	c := &Chain{}
	for _, item := range items {
		c.Push(item)
	}
	return c
}

// Push appends c; nil is ignored
func (c *Chain) Push(item Criteria) *Chain {
	if item == nil {
		return c
	}
	c.entries = append(c.entries, Entry{Kind: KindOf(item), Criteria: item})
	return c
}

// Pop removes every entry of the same kind as item
func (c *Chain) Pop(item Criteria) *Chain {
	return c.PopKind(KindOf(item))
}

// PopKind removes every entry of kind
func (c *Chain) PopKind(kind Kind) *Chain {
	kept := c.entries[:0:0]
	for _, e := range c.entries {
		if e.Kind != kind {
			kept = append(kept, e)
		}
	}
	c.entries = kept
	return c
}

// Skip disables (true) or re-enables (false) the whole chain
func (c *Chain) Skip(status bool) *Chain {
	c.skip = status
	return c
}

// Skipped reports whether the chain is disabled
func (c *Chain) Skipped() bool {
	return c.skip
}

// Reset removes every entry; the skip flag is left as is
func (c *Chain) Reset() *Chain {
	c.entries = nil
	return c
}

// Entries returns a copy of the entries in push order
func (c *Chain) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of entries
func (c *Chain) Len() int {
	return len(c.entries)
}

// Apply folds every criterion over q in push order. A skipped or empty
// chain returns q untouched.
func (c *Chain) Apply(q *query.Query, repo Repository) *query.Query {
	if c.skip || len(c.entries) == 0 {
		return q
	}
	for _, e := range c.entries {
		if next := e.Criteria.Apply(q, repo); next != nil {
			q = next
		}
	}
	return q
}
