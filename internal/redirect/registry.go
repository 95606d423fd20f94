package redirect

import (
	"slices"
	"strings"
	"sync"

	"bytegraft/internal/diagnostic"
)

// Registry holds declared sets and resolves them with their ancestors.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	declared map[string]*Set
	order    []string
	resolved map[string]*Set
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		declared: make(map[string]*Set),
		resolved: make(map[string]*Set),
	}
}

// Declare adds s. Declaring a second set with the same name fails.
func (r *Registry) Declare(s *Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Name == "" {
		return diagnostic.Configurationf("redirect set without a name")
	}

	if _, ok := r.declared[s.Name]; ok {
		return diagnostic.Configurationf("redirect set %q declared twice", s.Name)
	}

	r.declared[s.Name] = s
	r.order = append(r.order, s.Name)
	clear(r.resolved)

	return nil
}

// Declared returns the set declared under name, without its ancestors.
// Front ends add entries to it while building the model; changes made after
// the first Resolve of that name are not observed.
func (r *Registry) Declared(name string) (*Set, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.declared[name]

	return s, ok
}

// Names returns the declared set names in declaration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.order)
}

// Resolve returns the set name with every ancestor merged in, oldest first,
// before its own entries. Results are memoized.
func (r *Registry) Resolve(name string) (*Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.resolve(name, nil)
}

// ResolveAll resolves names in order.
func (r *Registry) ResolveAll(names []string) ([]*Set, error) {
	out := make([]*Set, 0, len(names))

	for _, n := range names {
		s, err := r.Resolve(n)
		if err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	return out, nil
}

func (r *Registry) resolve(name string, path []string) (*Set, error) {
	if s, ok := r.resolved[name]; ok {
		return s, nil
	}

	if slices.Contains(path, name) {
		return nil, diagnostic.Configurationf("redirect set inheritance cycle: %s -> %s",
			strings.Join(path, " -> "), name)
	}

	declared, ok := r.declared[name]
	if !ok {
		if len(path) > 0 {
			return nil, diagnostic.Resolutionf("redirect set %q extended by %q is not declared", name, path[len(path)-1])
		}

		return nil, diagnostic.Resolutionf("redirect set %q is not declared", name)
	}

	path = append(path, name)
	merged := NewSet(name, declared.Parents...)

	for _, parent := range declared.Parents {
		ancestor, err := r.resolve(parent, path)
		if err != nil {
			return nil, err
		}

		merged.MergeIfNotPresent(ancestor)
	}

	merged.MergeIfNotPresent(declared)
	r.resolved[name] = merged

	return merged, nil
}
