package tool

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Errors for registry operations.
var (
	// ErrToolNotFound is returned when a name or alias resolves to nothing.
	ErrToolNotFound = errors.New("tool not found")

	// ErrAliasConflict is returned when an alias collides with another
	// tool's name or alias.
	ErrAliasConflict = errors.New("alias conflict")
)

// Registry holds tool definitions keyed by name, with an alias map.
//
// Contract:
// - Concurrency: safe for concurrent use; registration against a racing
//   execution is last-write-wins.
// - Invariant: every alias resolves to an existing name.
// - Ownership: returned definitions are copies; mutating them does not
//   affect the registry.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Definition
	aliases map[string]string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Definition),
		aliases: make(map[string]string),
	}
}

// Register adds a tool or replaces an existing one with the same name.
// Stale aliases of a replaced tool are dropped before the new ones are
// installed, keeping every alias resolvable.
func (r *Registry) Register(d Definition) error {
	if d.Name == "" {
		return fmt.Errorf("tool name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, alias := range d.Aliases {
		if alias == d.Name {
			continue
		}
		if _, taken := r.tools[alias]; taken {
			return fmt.Errorf("%w: alias %q is another tool's name", ErrAliasConflict, alias)
		}
		if owner, taken := r.aliases[alias]; taken && owner != d.Name {
			return fmt.Errorf("%w: alias %q already resolves to %q", ErrAliasConflict, alias, owner)
		}
	}

	if prev, exists := r.tools[d.Name]; exists {
		for _, alias := range prev.Aliases {
			delete(r.aliases, alias)
		}
	}

	r.tools[d.Name] = d
	for _, alias := range d.Aliases {
		if alias != d.Name {
			r.aliases[alias] = d.Name
		}
	}
	return nil
}

// Resolve looks up a tool by name or alias.
func (r *Registry) Resolve(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.tools[name]; ok {
		return d, nil
	}
	if canonical, ok := r.aliases[name]; ok {
		if d, ok := r.tools[canonical]; ok {
			return d, nil
		}
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrToolNotFound, name)
}

// List returns all definitions sorted by name.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Snapshot returns all definitions supporting lang, sorted by name.
// The result is a stable input for deterministic binding generation.
func (r *Registry) Snapshot(lang string) []Definition {
	all := r.List()
	out := make([]Definition, 0, len(all))
	for _, d := range all {
		if d.SupportsLanguage(lang) {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
