package entity

import (
	"fmt"
	"strings"
)

// Source is a named RSS feed endpoint contributing articles.
type Source struct {
	Name    string `yaml:"name" json:"name"`
	FeedURL string `yaml:"url" json:"url"`
}

// Validate checks that the source has a name and a well-formed feed URL.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Message: "source name is required"}
	}
	if err := ValidateURL(s.FeedURL); err != nil {
		return fmt.Errorf("source %q: %w", s.Name, err)
	}
	return nil
}

// Registry is the ordered, read-only mapping from source name to feed URL.
// A Registry is safe for concurrent use because it is never mutated after construction.
type Registry struct {
	sources []Source
	index   map[string]int
}

// NewRegistry validates the sources and builds a registry preserving their order.
// Duplicate names are rejected.
func NewRegistry(sources []Source) (*Registry, error) {
	if len(sources) == 0 {
		return nil, &ValidationError{Field: "sources", Message: "at least one source is required"}
	}

	r := &Registry{
		sources: make([]Source, 0, len(sources)),
		index:   make(map[string]int, len(sources)),
	}
	for _, src := range sources {
		if err := src.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.index[src.Name]; dup {
			return nil, &ValidationError{Field: "name", Message: fmt.Sprintf("duplicate source name %q", src.Name)}
		}
		r.index[src.Name] = len(r.sources)
		r.sources = append(r.sources, src)
	}
	return r, nil
}

// Sources returns a copy of all sources in registry order.
func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Names returns all source names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sources))
	for i, src := range r.sources {
		names[i] = src.Name
	}
	return names
}

// Lookup returns the source registered under name.
func (r *Registry) Lookup(name string) (Source, bool) {
	i, ok := r.index[name]
	if !ok {
		return Source{}, false
	}
	return r.sources[i], true
}

// Has reports whether name is a registered source.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Select returns the registered sources whose names appear in names, in registry order.
// Unknown names are ignored.
func (r *Registry) Select(names []string) []Source {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	out := make([]Source, 0, len(wanted))
	for _, src := range r.sources {
		if _, ok := wanted[src.Name]; ok {
			out = append(out, src)
		}
	}
	return out
}

// Unknown returns the names that are not registered, preserving input order.
func (r *Registry) Unknown(names []string) []string {
	var unknown []string
	for _, n := range names {
		if !r.Has(n) {
			unknown = append(unknown, n)
		}
	}
	return unknown
}
