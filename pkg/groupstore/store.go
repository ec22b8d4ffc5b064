// Package groupstore persists the view groups after every grid rebuild.
//
// Backends:
//
//   - [Null]: discards everything
//   - [Memory]: process memory, for tests and ephemeral servers
//   - [File]: a TOML file with one [[view_groups]] table per group
//   - [Redis]: a JSON document under one key
//   - [Mongo]: one document per group, ordered by position
//
// Every backend preserves group order.
package groupstore

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/viewgrid/pkg/view"
)

// Store saves and restores view groups.
type Store interface {
	// Load returns the saved groups, or nil when nothing was saved yet.
	Load(ctx context.Context) ([]view.Group, error)

	// Save replaces the saved groups.
	Save(ctx context.Context, groups []view.Group) error

	Close() error
}

// Null is a store that never saves.
type Null struct{}

func (Null) Load(context.Context) ([]view.Group, error) { return nil, nil }
func (Null) Save(context.Context, []view.Group) error   { return nil }
func (Null) Close() error                               { return nil }

// Memory keeps the last saved groups in memory.
type Memory struct {
	mu     sync.Mutex
	groups []view.Group
	saves  int
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(context.Context) ([]view.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneGroups(m.groups), nil
}

func (m *Memory) Save(_ context.Context, groups []view.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = cloneGroups(groups)
	m.saves++
	return nil
}

func (m *Memory) Close() error { return nil }

// Saves returns how often Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneGroups(groups []view.Group) []view.Group {
	if groups == nil {
		return nil
	}
	out := make([]view.Group, len(groups))
	for i, g := range groups {
		out[i] = view.Group{Name: g.Name, Views: slices.Clone(g.Views)}
	}
	return out
}

var (
	_ Store = Null{}
	_ Store = (*Memory)(nil)
)
