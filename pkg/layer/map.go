package layer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/matzehuels/viewgrid/pkg/layout"
	"github.com/matzehuels/viewgrid/pkg/session"
	"github.com/matzehuels/viewgrid/pkg/view"
)

// DefaultMapURL is the embed endpoint used when none is configured.
const DefaultMapURL = "https://www.bing.com/maps/embed?"

// mapQuery holds the fixed embed parameters: zoom level 12, road map,
// aerial style, shell source.
const mapQuery = "&lvl=12&typ=d&sty=a&src=SHELL&FORM=MBEDV8"

var (
	mapFill   = color.NRGBA{0xe5, 0xe3, 0xdf, 0xff}
	mapBorder = color.NRGBA{0xa0, 0xa0, 0xa0, 0xff}
	mapPin    = color.NRGBA{0xd0, 0x30, 0x30, 0xff}
)

// Map embeds a map centred on the subject location. It keeps the embed URL
// current with the tile size and the location; composites show a
// placeholder in its place.
type Map struct {
	*Base
	env  *Env
	size layout.Size
	loc  session.Location
	url  string
}

// NewMapLayer is the [Constructor] of [Map].
func NewMapLayer(env *Env, _ Owner, v view.View, size layout.Size) Layer {
	return NewMap(env, v, size)
}

// NewMap creates a map layer of size centred on the env location.
func NewMap(env *Env, v view.View, size layout.Size) *Map {
	m := &Map{Base: NewBase(v), env: env, size: size, loc: env.location()}
	m.update()
	return m
}

func (m *Map) Kind() Kind { return KindBingMap }

// URL returns the current embed URL.
func (m *Map) URL() string { return m.url }

func (m *Map) SizeChanged(width, height int) {
	m.size = layout.Size{Width: width, Height: height}
	m.update()
}

func (m *Map) LocationChanged(loc session.Location) {
	m.loc = loc
	m.update()
}

func (m *Map) update() {
	base := m.env.MapURL
	if base == "" {
		base = DefaultMapURL
	}
	m.url = fmt.Sprintf("%sh=%d&w=%d&cp=%s%s", base, m.size.Height, m.size.Width, m.loc, mapQuery)
}

// Draw paints a placeholder: a neutral fill with a border and a pin at the
// centre.
func (m *Map) Draw(dst draw.Image, at image.Point) {
	r := image.Rectangle{Min: at, Max: at.Add(image.Pt(m.size.Width, m.size.Height))}
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(mapBorder), image.Point{}, draw.Src)
	draw.Draw(dst, r.Inset(1), image.NewUniform(mapFill), image.Point{}, draw.Src)

	c := at.Add(image.Pt(m.size.Width/2, m.size.Height/2))
	pin := image.Rect(c.X-3, c.Y-3, c.X+3, c.Y+3).Intersect(r)
	draw.Draw(dst, pin, image.NewUniform(mapPin), image.Point{}, draw.Src)
}

var (
	_ Layer  = (*Map)(nil)
	_ Drawer = (*Map)(nil)
)
