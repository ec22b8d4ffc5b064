package viewport

import (
	"errors"
	"image"
	"image/draw"

	"github.com/matzehuels/viewgrid/pkg/contrast"
	"github.com/matzehuels/viewgrid/pkg/layer"
	"github.com/matzehuels/viewgrid/pkg/layout"
	"github.com/matzehuels/viewgrid/pkg/session"
	"github.com/matzehuels/viewgrid/pkg/transform"
	"github.com/matzehuels/viewgrid/pkg/view"
)

// ErrLastView is returned when removing the only tile of a group.
var ErrLastView = errors.New("cannot remove the last view of a group")

// ErrNoWidget is returned by contrast gestures on ports without a widget.
var ErrNoWidget = errors.New("view has no contrast window")

// Host is what a port delegates control events to.
type Host interface {
	AddView(name string, position int) error
	RemoveView(position int) error
	ReplaceView(position int, name string) error

	ContrastWindow(name string) contrast.Window
	SetContrastWindow(name string, min, max int)
	ShowContrastWindows() bool

	// ViewNames lists every registered view for the selector.
	ViewNames() []string
	// ViewCount is the number of tiles in the current group.
	ViewCount() int
}

// descriptionInset is subtracted from the tile width to get the maximum
// description width.
const descriptionInset = 40

// Port is one tile: a view, its layers and its controls.
type Port struct {
	id   int
	view view.View
	host Host

	layers []layer.Layer
	size   layout.Size
	pos    image.Point

	controls *Controls
	widget   *ContrastWidget
}

// New creates the port at column id for v.
func New(id int, v view.View, host Host) *Port {
	p := &Port{id: id, view: v, host: host}
	p.controls = newControls(p, host)
	if v.IsImage() {
		p.widget = newContrastWidget(p, host)
	}
	return p
}

// ID returns the column index.
func (p *Port) ID() int { return p.id }

// View returns the view shown in the port.
func (p *Port) View() view.View { return p.view }

// Size returns the tile size.
func (p *Port) Size() layout.Size { return p.size }

// Position returns the tile's top-left corner.
func (p *Port) Position() image.Point { return p.pos }

// Bounds returns the tile rectangle in grid coordinates.
func (p *Port) Bounds() image.Rectangle {
	return image.Rectangle{Min: p.pos, Max: p.pos.Add(image.Pt(p.size.Width, p.size.Height))}
}

// Controls returns the control overlay.
func (p *Port) Controls() *Controls { return p.controls }

// Widget returns the contrast widget, or nil for non-image views.
func (p *Port) Widget() *ContrastWidget { return p.widget }

// AddLayer appends l on top of the stack.
func (p *Port) AddLayer(l layer.Layer) {
	p.layers = append(p.layers, l)
}

// Layers returns the stack, bottom first.
func (p *Port) Layers() []layer.Layer { return p.layers }

// ZIndex returns the stacking order of the i-th layer: its 1-based position.
func (p *Port) ZIndex(i int) int { return i + 1 }

// Pixels returns the pixel layers of the stack.
func (p *Port) Pixels() []*layer.Pixel {
	var out []*layer.Pixel
	for _, l := range p.layers {
		if px, ok := l.(*layer.Pixel); ok {
			out = append(out, px)
		}
	}
	return out
}

// SetSize resizes the tile and every layer.
func (p *Port) SetSize(width, height int) {
	p.size = layout.Size{Width: width, Height: height}
	for _, l := range p.layers {
		l.SizeChanged(width, height)
	}
	p.controls.DescriptionMaxWidth = width - descriptionInset
}

// SetPosition moves the tile and notifies every layer.
func (p *Port) SetPosition(x, y int) {
	p.pos = image.Pt(x, y)
	for _, l := range p.layers {
		l.PositionChanged(x, y)
	}
}

// Render renders every layer, bottom first.
func (p *Port) Render() {
	for _, l := range p.layers {
		l.Render()
	}
}

// LocationChanged forwards a subject location change to every layer.
func (p *Port) LocationChanged(loc session.Location) {
	for _, l := range p.layers {
		l.LocationChanged(loc)
	}
}

// HistogramChanged refreshes the widget plot after a pixel render.
func (p *Port) HistogramChanged(name string) {
	if p.widget != nil && name == p.view.Name {
		p.widget.refresh()
	}
}

// Pan translates the canvases of this port only and re-renders them.
func (p *Port) Pan(dx, dy float64) {
	p.updateTransform(func(t transform.Affine) transform.Affine { return t.Pan(dx, dy) })
}

// Zoom scales the canvases of this port only about (cx, cy).
func (p *Port) Zoom(factor, cx, cy float64) {
	p.updateTransform(func(t transform.Affine) transform.Affine { return t.Zoom(factor, cx, cy) })
}

func (p *Port) updateTransform(fn func(transform.Affine) transform.Affine) {
	for _, px := range p.Pixels() {
		px.SetTransform(fn(px.Transform()))
		px.Render()
	}
}

// ClickAdd inserts this port's view next to it.
func (p *Port) ClickAdd() error {
	return p.host.AddView(p.view.Name, p.id)
}

// ClickRemove removes this tile. It fails with ErrLastView when the remove
// button is withheld.
func (p *Port) ClickRemove() error {
	if p.controls.Remove == nil {
		return ErrLastView
	}
	return p.host.RemoveView(p.id)
}

// Select replaces this tile's view with name.
func (p *Port) Select(name string) error {
	return p.host.ReplaceView(p.id, name)
}

// ShowControls sets the visibility of the control overlay.
func (p *Port) ShowControls(show bool) {
	p.controls.Visible = show
}

// SyncContrastVisibility shows or hides the widget according to the host flag.
func (p *Port) SyncContrastVisibility() {
	if p.widget != nil {
		p.widget.Visible = p.host.ShowContrastWindows()
	}
}

// Draw composites every drawable layer in z-order onto dst, offset by the
// tile position.
func (p *Port) Draw(dst draw.Image) {
	for _, l := range p.layers {
		if d, ok := l.(layer.Drawer); ok {
			d.Draw(dst, p.pos)
		}
	}
}

// Close closes every layer.
func (p *Port) Close() {
	for _, l := range p.layers {
		l.Close()
	}
}
