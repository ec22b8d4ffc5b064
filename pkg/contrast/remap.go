package contrast

import (
	"image"
	"math"
)

// LUT returns the lookup table that maps a channel value through the window
// [min, max]. Values are clamped to [min, max] and rescaled linearly to
// [0, 255]. A degenerate window (min == max) maps every value to 0.
func LUT(min, max int) [256]uint8 {
	min, max = clampValue(min), clampValue(max)
	if min > max {
		min, max = max, min
	}

	var lut [256]uint8
	if min == max {
		return lut
	}

	span := float64(max - min)
	for v := range lut {
		c := float64(v)
		c = math.Max(float64(min), math.Min(float64(max), c))
		lut[v] = uint8(math.Round((c - float64(min)) / span * 255))
	}
	return lut
}

// Apply remaps the RGB channels of img in place through the window [min, max].
// Alpha is untouched. The full window is the identity and returns immediately.
func Apply(img *image.NRGBA, min, max int) {
	if img == nil || (min <= MinValue && max >= MaxValue) {
		return
	}
	lut := LUT(min, max)
	b := img.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			row[i] = lut[row[i]]
			row[i+1] = lut[row[i+1]]
			row[i+2] = lut[row[i+2]]
		}
	}
}
