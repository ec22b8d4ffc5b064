package viewer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/matzehuels/viewgrid/pkg/filter"
	"github.com/matzehuels/viewgrid/pkg/layer"
	"github.com/matzehuels/viewgrid/pkg/layout"
	"github.com/matzehuels/viewgrid/pkg/session"
	"github.com/matzehuels/viewgrid/pkg/transform"
	"github.com/matzehuels/viewgrid/pkg/view"
)

// Background is the colour behind the tiles in composites.
var Background = color.NRGBA{0x20, 0x20, 0x20, 0xff}

// State is a JSON view of the grid.
type State struct {
	Session      *session.Session       `json:"session,omitempty"`
	Group        string                 `json:"group"`
	Groups       []view.Group           `json:"groups"`
	Viewport     layout.Size            `json:"viewport"`
	Tile         layout.Size            `json:"tile"`
	Ports        []PortState            `json:"ports"`
	Windows      map[string]WindowState `json:"contrast_windows"`
	ShowWindows  bool                   `json:"show_contrast_windows"`
	ShowControls bool                   `json:"show_controls"`
	Filters      filter.Filters         `json:"filters"`
	Transform    *transform.Affine      `json:"transform,omitempty"`
}

// PortState describes one tile.
type PortState struct {
	ID       int          `json:"id"`
	View     string       `json:"view"`
	Type     view.Type    `json:"type"`
	Tile     layout.Tile  `json:"tile"`
	Layers   []LayerState `json:"layers"`
	Controls bool         `json:"controls_visible"`
	Widget   *WidgetState `json:"widget,omitempty"`
}

// LayerState describes one layer of a tile.
type LayerState struct {
	Kind    layer.Kind `json:"kind"`
	ZIndex  int        `json:"z_index"`
	Drawn   bool       `json:"drawn,omitempty"`
	Waiting bool       `json:"waiting,omitempty"`
	Filter  string     `json:"filter,omitempty"`
	URL     string     `json:"url,omitempty"`
}

// WidgetState describes the contrast widget of an image tile.
type WidgetState struct {
	Visible   bool   `json:"visible"`
	Minimised bool   `json:"minimised"`
	Min       int    `json:"min"`
	Max       int    `json:"max"`
	Readout   string `json:"readout"`
}

// WindowState is a contrast window without its histogram.
type WindowState struct {
	Min          int  `json:"min"`
	Max          int  `json:"max"`
	HasHistogram bool `json:"has_histogram"`
}

// Snapshot captures the current state.
func (m *Manager) Snapshot() State {
	st := State{
		Session:      m.session,
		Group:        m.current,
		Groups:       m.groups.Entries(),
		Viewport:     m.viewport,
		Tile:         m.tile,
		Ports:        make([]PortState, 0, len(m.ports)),
		Windows:      make(map[string]WindowState),
		ShowWindows:  m.showWindows,
		ShowControls: m.showControls,
		Filters:      m.filters,
	}
	if t, ok := m.Transform(); ok {
		st.Transform = &t
	}
	for name, w := range m.windows.All() {
		st.Windows[name] = WindowState{Min: w.Min, Max: w.Max, HasHistogram: w.Histogram != nil}
	}
	for _, p := range m.ports {
		size, pos := p.Size(), p.Position()
		ps := PortState{
			ID:       p.ID(),
			View:     p.View().Name,
			Type:     p.View().Type,
			Tile:     layout.Tile{Index: p.ID(), X: pos.X, Y: pos.Y, Width: size.Width, Height: size.Height},
			Controls: p.Controls().Visible,
		}
		for i, l := range p.Layers() {
			ls := LayerState{Kind: l.Kind(), ZIndex: p.ZIndex(i)}
			switch l := l.(type) {
			case *layer.Pixel:
				ls.Drawn, ls.Waiting, ls.Filter = l.Drawn(), l.Waiting(), l.CSS()
			case *layer.Map:
				ls.URL = l.URL()
			}
			ps.Layers = append(ps.Layers, ls)
		}
		if w := p.Widget(); w != nil {
			min, max := w.Slider.Values()
			ps.Widget = &WidgetState{
				Visible:   w.Visible,
				Minimised: w.Minimised,
				Min:       min,
				Max:       max,
				Readout:   w.Slider.Readout(),
			}
		}
		st.Ports = append(st.Ports, ps)
	}
	return st
}

// Composite draws every tile into one image covering the grid.
func (m *Manager) Composite() *image.NRGBA {
	b := layout.Bounds(m.tile, len(m.ports))
	dst := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
	for _, p := range m.ports {
		p.Draw(dst)
	}
	return dst
}

// LoadGroups replaces the configured groups with persisted ones, if the
// store has any.
func (m *Manager) LoadGroups(ctx context.Context) error {
	groups, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load view groups: %w", err)
	}
	if len(groups) > 0 {
		m.SetGroups(groups)
		m.logger.Debug("restored view groups", "count", len(groups))
	}
	return nil
}

// Prefetch starts loading every view of the current group and waits for all
// of them.
func (m *Manager) Prefetch(ctx context.Context) error {
	names, _ := m.groups.Get(m.current)
	var images []string
	for _, v := range m.resolve(names) {
		if v.IsImage() {
			images = append(images, v.Name)
		}
	}
	return m.sources.Prefetch(ctx, images)
}
