package contrast

import (
	"sort"
	"sync"
)

// Bounds of the intensity range.
const (
	MinValue = 0
	MaxValue = 255

	// Buckets is the number of histogram buckets.
	Buckets = 256
)

// Window is the contrast window of one view.
type Window struct {
	Min       int        `json:"min"`
	Max       int        `json:"max"`
	Histogram *Histogram `json:"histogram,omitempty"`
}

// DefaultWindow returns the full-range window without a histogram.
func DefaultWindow() Window {
	return Window{Min: MinValue, Max: MaxValue}
}

// IsFull reports whether w covers the whole intensity range, in which case
// remapping is the identity.
func (w Window) IsFull() bool {
	return w.Min <= MinValue && w.Max >= MaxValue
}

// Store holds contrast windows keyed by view name.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	windows map[string]*Window
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{windows: make(map[string]*Window)}
}

// Get returns the window for name, creating the default window on first access.
// The returned value is a copy.
func (s *Store) Get(name string) Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.lookup(name)
}

// Set replaces min and max for name, keeping any cached histogram.
// Values are clamped to [0, 255]; ordering is left to the caller.
func (s *Store) Set(name string, min, max int) Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.lookup(name)
	w.Min = clampValue(min)
	w.Max = clampValue(max)
	return *w
}

// SetHistogram caches the histogram computed for name.
func (s *Store) SetHistogram(name string, h *Histogram) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookup(name).Histogram = h
}

// ResetHistograms drops every cached histogram, keeping the windows.
// Called when a new subject image is bound.
func (s *Store) ResetHistograms() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.windows {
		w.Histogram = nil
	}
}

// Names returns the view names with a stored window, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.windows))
	for name := range s.windows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of every stored window.
func (s *Store) All() map[string]Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Window, len(s.windows))
	for name, w := range s.windows {
		out[name] = *w
	}
	return out
}

func (s *Store) lookup(name string) *Window {
	w, ok := s.windows[name]
	if !ok {
		def := DefaultWindow()
		w = &def
		s.windows[name] = w
	}
	return w
}

func clampValue(v int) int {
	return max(MinValue, min(MaxValue, v))
}
