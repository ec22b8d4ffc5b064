package view

import (
	"slices"
)

// Group is a named, ordered list of view names. A name may repeat.
type Group struct {
	Name  string   `json:"name" toml:"name" bson:"name"`
	Views []string `json:"views" toml:"views" bson:"views"`
}

// Groups is an ordered set of groups. Registration order drives
// [Groups.Next].
type Groups struct {
	order []string
	views map[string][]string
}

// NewGroups creates a set from entries. A later entry with a repeated name
// replaces the earlier one's views and keeps its position.
func NewGroups(entries ...Group) *Groups {
	g := &Groups{views: make(map[string][]string, len(entries))}
	for _, e := range entries {
		g.Set(e.Name, e.Views)
	}
	return g
}

// Has reports whether name is a group.
func (g *Groups) Has(name string) bool {
	_, ok := g.views[name]
	return ok
}

// Get returns a copy of the views of name.
func (g *Groups) Get(name string) ([]string, bool) {
	v, ok := g.views[name]
	return slices.Clone(v), ok
}

// Set stores views under name, appending name to the order if it is new.
func (g *Groups) Set(name string, views []string) {
	if _, ok := g.views[name]; !ok {
		g.order = append(g.order, name)
	}
	g.views[name] = slices.Clone(views)
}

// Names returns the group names in registration order.
func (g *Groups) Names() []string {
	return slices.Clone(g.order)
}

// Len returns the number of groups.
func (g *Groups) Len() int { return len(g.order) }

// Next returns the group after name, wrapping to the first. An unknown name
// yields the first group. Returns "" when there are no groups.
func (g *Groups) Next(name string) string {
	if len(g.order) == 0 {
		return ""
	}
	i := slices.Index(g.order, name)
	return g.order[(i+1)%len(g.order)]
}

// Insert places view at position in group name. A negative or out-of-range
// position appends. It reports false if the group does not exist.
func (g *Groups) Insert(name string, position int, view string) bool {
	views, ok := g.views[name]
	if !ok {
		return false
	}
	if position < 0 || position > len(views) {
		position = len(views)
	}
	g.views[name] = slices.Insert(views, position, view)
	return true
}

// Replace overwrites the view at position. It reports false if the group
// does not exist or position is out of range.
func (g *Groups) Replace(name string, position int, view string) bool {
	views, ok := g.views[name]
	if !ok || position < 0 || position >= len(views) {
		return false
	}
	views[position] = view
	return true
}

// Remove deletes the view at position. It reports false if the group does
// not exist or position is out of range.
func (g *Groups) Remove(name string, position int) bool {
	views, ok := g.views[name]
	if !ok || position < 0 || position >= len(views) {
		return false
	}
	g.views[name] = slices.Delete(views, position, position+1)
	return true
}

// Entries returns the groups in order, ready for persistence.
func (g *Groups) Entries() []Group {
	out := make([]Group, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, Group{Name: name, Views: slices.Clone(g.views[name])})
	}
	return out
}

// Clone returns a deep copy.
func (g *Groups) Clone() *Groups {
	return NewGroups(g.Entries()...)
}
