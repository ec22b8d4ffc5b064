// Package layer defines the drawable strata stacked inside a view port.
//
// Every port holds an ordered list of [Layer]s. Which layers a port gets is
// decided by a [Registry] of (predicate, constructor) pairs: when a port is
// built for a view, every constructor whose predicate accepts the view
// contributes one layer, in registration order.
//
// The standard registry knows two kinds besides the no-op [Base]:
//
//   - [Pixel] ("rgb"): the view image drawn through a pan/zoom transform,
//     contrast windowed and filtered
//   - [Map] ("bingmap"): a map embed centred on the subject location
package layer

import (
	"image"
	"image/draw"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/viewgrid/pkg/contrast"
	"github.com/matzehuels/viewgrid/pkg/filter"
	"github.com/matzehuels/viewgrid/pkg/layout"
	"github.com/matzehuels/viewgrid/pkg/session"
	"github.com/matzehuels/viewgrid/pkg/source"
	"github.com/matzehuels/viewgrid/pkg/view"
)

// Kind tags a layer variant.
type Kind string

const (
	KindBase    Kind = "base"
	KindRGB     Kind = "rgb"
	KindBingMap Kind = "bingmap"
)

// Layer is one stratum of a view port.
type Layer interface {
	Kind() Kind
	View() view.View

	// Render redraws the layer from current state.
	Render()
	SizeChanged(width, height int)
	PositionChanged(x, y int)
	LocationChanged(loc session.Location)

	// Close releases the layer. A closed layer never renders again.
	Close()
}

// Drawer is implemented by layers that contribute pixels to composites.
type Drawer interface {
	// Draw paints the layer onto dst with its top-left corner at at.
	Draw(dst draw.Image, at image.Point)
}

// Owner receives notifications from the layers of a port.
type Owner interface {
	HistogramChanged(view string)
}

// Scheduler runs fn on the goroutine that owns the layers.
type Scheduler interface {
	Post(fn func())
}

// Env is the shared state layers read from.
type Env struct {
	Sources *source.Sources
	Windows *contrast.Store

	// ShowWindows reports whether contrast windowing is visualised.
	ShowWindows func() bool
	Filters     func() filter.Filters
	Location    func() session.Location

	// MapURL is the prefix of map embed URLs.
	MapURL string

	Scheduler Scheduler
	Logger    *log.Logger
}

func (e *Env) logger() *log.Logger {
	if e.Logger == nil {
		return log.New(io.Discard)
	}
	return e.Logger
}

func (e *Env) showWindows() bool {
	return e.ShowWindows != nil && e.ShowWindows()
}

func (e *Env) filters() filter.Filters {
	if e.Filters == nil {
		return filter.Default()
	}
	return e.Filters()
}

func (e *Env) location() session.Location {
	if e.Location == nil {
		return session.Location{}
	}
	return e.Location()
}

// Base is the layer that does nothing. Variants embed it for the events they
// ignore.
type Base struct {
	view view.View
}

// NewBase creates a no-op layer for v.
func NewBase(v view.View) *Base { return &Base{view: v} }

func (b *Base) Kind() Kind                           { return KindBase }
func (b *Base) View() view.View                      { return b.view }
func (b *Base) Render()                              {}
func (b *Base) SizeChanged(width, height int)        {}
func (b *Base) PositionChanged(x, y int)             {}
func (b *Base) LocationChanged(loc session.Location) {}
func (b *Base) Close()                               {}

// Constructor builds a layer for v; size is the tile size at build time.
type Constructor func(env *Env, owner Owner, v view.View, size layout.Size) Layer

// Predicate selects the views a constructor applies to. nil accepts all.
type Predicate func(v view.View) bool

// OfType returns a predicate accepting views of type t.
func OfType(t view.Type) Predicate {
	return func(v view.View) bool { return v.Type == t }
}

type entry struct {
	construct Constructor
	accept    Predicate
}

// Registry is an ordered list of standard layers.
type Registry struct {
	entries []entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Standard returns the registry with the pixel layer for image views and the
// map layer for bingmap views.
func Standard() *Registry {
	r := NewRegistry()
	r.Add(NewPixelLayer, OfType(view.TypeImage))
	r.Add(NewMapLayer, OfType(view.TypeBingMap))
	return r
}

// Add appends a constructor. A nil predicate applies it to every view.
func (r *Registry) Add(c Constructor, p Predicate) {
	r.entries = append(r.entries, entry{construct: c, accept: p})
}

// Len returns the number of registered constructors.
func (r *Registry) Len() int { return len(r.entries) }

// Build constructs the layers applicable to v in registration order.
func (r *Registry) Build(env *Env, owner Owner, v view.View, size layout.Size) []Layer {
	var layers []Layer
	for _, e := range r.entries {
		if e.accept == nil || e.accept(v) {
			if l := e.construct(env, owner, v, size); l != nil {
				layers = append(layers, l)
			}
		}
	}
	return layers
}
