// Package filter holds the global colour adjustments applied to every image tile.
//
// These are cheap, display-level adjustments that sit on top of the per-view
// contrast window: invert, brightness and saturation, expressed with the same
// semantics as the CSS filter functions invert(), brightness() and saturate()
// so that a browser front-end and the compositor agree on the result.
package filter

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// Filters are the global display adjustments.
type Filters struct {
	// Contrast is stored and round-tripped but has no effect.
	Contrast bool `json:"contrast" toml:"contrast"`

	Invert     bool    `json:"invert" toml:"invert"`
	Brightness float64 `json:"brightness" toml:"brightness"` // percent, 100 = unchanged
	Saturation float64 `json:"saturation" toml:"saturation"` // percent, 100 = unchanged
}

// Default returns filters that leave pixels unchanged.
func Default() Filters {
	return Filters{Brightness: 100, Saturation: 100}
}

// IsIdentity reports whether applying f would leave pixels unchanged.
func (f Filters) IsIdentity() bool {
	return !f.Invert && f.Brightness == 100 && f.Saturation == 100
}

// Normalize clamps negative percentages to zero.
func (f Filters) Normalize() Filters {
	f.Brightness = math.Max(0, f.Brightness)
	f.Saturation = math.Max(0, f.Saturation)
	return f
}

// CSS returns the equivalent CSS filter property value,
// e.g. "invert(1) brightness(120%) saturate(100%)".
func (f Filters) CSS() string {
	var parts []string
	if f.Invert {
		parts = append(parts, "invert(1)")
	}
	parts = append(parts,
		fmt.Sprintf("brightness(%s%%)", formatPercent(f.Brightness)),
		fmt.Sprintf("saturate(%s%%)", formatPercent(f.Saturation)),
	)
	return strings.Join(parts, " ")
}

func formatPercent(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// Apply returns a copy of img with the filters applied in CSS order
// (invert, then brightness, then saturate). Alpha is preserved.
func (f Filters) Apply(img image.Image) *image.NRGBA {
	f = f.Normalize()
	out := imaging.Clone(img)
	if f.IsIdentity() {
		return out
	}
	if f.Invert {
		out = imaging.Invert(out)
	}

	brightness := f.Brightness / 100
	m := saturateMatrix(f.Saturation / 100)
	return imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
		r := float64(c.R) * brightness
		g := float64(c.G) * brightness
		b := float64(c.B) * brightness
		return color.NRGBA{
			R: clamp8(m[0]*r + m[1]*g + m[2]*b),
			G: clamp8(m[3]*r + m[4]*g + m[5]*b),
			B: clamp8(m[6]*r + m[7]*g + m[8]*b),
			A: c.A,
		}
	})
}

// saturateMatrix is the W3C Filter Effects saturate matrix for s (1 = identity).
func saturateMatrix(s float64) [9]float64 {
	return [9]float64{
		0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s,
		0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s,
		0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s,
	}
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
