package criteria

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrInvalidKind is returned for an empty kind or a nil factory
	ErrInvalidKind = errors.New("invalid criteria kind")
	// ErrDuplicateKind is returned when a kind is registered twice
	ErrDuplicateKind = errors.New("criteria kind already registered")
	// ErrUnknownKind is returned when building a kind nobody registered
	ErrUnknownKind = errors.New("unknown criteria kind")
)

// Factory constructs a fresh criterion
type Factory func() Criteria

// Registry maps kind tags to constructors. Registration normally happens at
// start-up; lookups are safe from any goroutine.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// Register binds kind to factory
func (r *Registry) Register(kind Kind, factory Factory) error {
	if kind == "" || factory == nil {
		return ErrInvalidKind
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
	}
	r.factories[kind] = factory
	return nil
}

// MustRegister is Register that panics, for package-level wiring
func (r *Registry) MustRegister(kind Kind, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic(err)
	}
}

// New constructs a criterion of kind. The result carries kind as its tag
// so that PopKind(kind) removes it.
func (r *Registry) New(kind Kind) (Criteria, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	c := factory()
	if c == nil {
		return nil, fmt.Errorf("%w: factory for %s returned nil", ErrInvalidKind, kind)
	}
	if KindOf(c) != kind {
		c = Tagged(kind, c)
	}
	return c, nil
}

// Chain builds a chain with one criterion per kind, in order
func (r *Registry) Chain(kinds ...Kind) (*Chain, error) {
	chain := NewChain()
	for _, kind := range kinds {
		c, err := r.New(kind)
		if err != nil {
			return nil, err
		}
		chain.Push(c)
	}
	return chain, nil
}

// Kinds returns the registered kinds, sorted
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
