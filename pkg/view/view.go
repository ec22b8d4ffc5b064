// Package view defines the views a subject image can be shown in and the
// named, ordered groups of views the grid switches between.
package view

import (
	"sort"
)

// Type discriminates how a view is rendered.
type Type string

const (
	// TypeImage views are raster images fetched from the image host.
	TypeImage Type = "image"
	// TypeBingMap views embed a map centred on the subject location.
	TypeBingMap Type = "bingmap"
)

// View describes one way of showing the subject.
type View struct {
	Name        string         `json:"name" toml:"-"`
	Type        Type           `json:"type" toml:"type"`
	Description string         `json:"description,omitempty" toml:"description"`
	Params      map[string]any `json:"params,omitempty" toml:"params,omitempty"`
}

// IsImage reports whether v is rendered from fetched pixels.
func (v View) IsImage() bool { return v.Type == TypeImage }

// Registry maps view names to views.
type Registry struct {
	views map[string]View
}

// NewRegistry creates a registry holding views.
// The map key wins over View.Name.
func NewRegistry(views map[string]View) *Registry {
	r := &Registry{views: make(map[string]View, len(views))}
	for name, v := range views {
		v.Name = name
		r.views[name] = v
	}
	return r
}

// Get returns the view registered as name.
func (r *Registry) Get(name string) (View, bool) {
	v, ok := r.views[name]
	return v, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.views[name]
	return ok
}

// Set registers or replaces v under v.Name.
func (r *Registry) Set(v View) {
	r.views[v.Name] = v
}

// Names returns every registered view name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.views))
	for name := range r.views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the registered views.
func (r *Registry) All() map[string]View {
	out := make(map[string]View, len(r.views))
	for name, v := range r.views {
		out[name] = v
	}
	return out
}

// Len returns the number of registered views.
func (r *Registry) Len() int { return len(r.views) }
