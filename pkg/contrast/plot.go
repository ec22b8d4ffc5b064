package contrast

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

var (
	plotBackground = color.NRGBA{0x66, 0x66, 0x66, 0xff}
	plotBar        = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	plotMarker     = color.NRGBA{0xff, 0xff, 0x00, 0xff}
)

// plotMarkerWidth is the width of the min/max lines in pixels.
const plotMarkerWidth = 2

// Plot draws the histogram of w into a width x height image: bars scaled to
// the tallest bucket on a grey background and the window bounds as yellow
// vertical lines. Without a histogram only the background and the lines are
// drawn.
func Plot(w Window, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	if width <= 0 || height <= 0 {
		return img
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(plotBackground), image.Point{}, draw.Src)

	if h := w.Histogram; h != nil {
		if peak := h.Peak(); peak > 0 {
			scale := float64(height) / float64(peak)
			for i, count := range h {
				barHeight := int(math.Round(float64(count) * scale))
				if barHeight == 0 {
					continue
				}
				x := int(float64(i) / Buckets * float64(width))
				bar := image.Rect(x, height-barHeight, x+1, height)
				draw.Draw(img, bar, image.NewUniform(plotBar), image.Point{}, draw.Src)
			}
		}
	}

	for _, v := range []int{w.Min, w.Max} {
		x := int(math.Round(float64(v) / MaxValue * float64(width)))
		line := image.Rect(x-plotMarkerWidth/2, 0, x+plotMarkerWidth/2, height).Intersect(img.Bounds())
		draw.Draw(img, line, image.NewUniform(plotMarker), image.Point{}, draw.Src)
	}
	return img
}
