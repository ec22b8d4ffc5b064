package contrast

import (
	"image"
	"image/draw"
)

// Histogram counts pixels per intensity, where the intensity of a pixel is
// the rounded mean of its three colour channels.
type Histogram [Buckets]int

// Compute builds the histogram of img over non-premultiplied 8-bit channels.
func Compute(img image.Image) *Histogram {
	var h Histogram
	if img == nil {
		return &h
	}
	nrgba := toNRGBA(img)
	b := nrgba.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := nrgba.Pix[nrgba.PixOffset(b.Min.X, y):nrgba.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			h[intensity(row[i], row[i+1], row[i+2])]++
		}
	}
	return &h
}

// intensity is round((r+g+b)/3) in integer arithmetic.
func intensity(r, g, b uint8) int {
	return (int(r) + int(g) + int(b) + 1) / 3
}

// Total returns the number of counted pixels.
func (h *Histogram) Total() int {
	total := 0
	for _, c := range h {
		total += c
	}
	return total
}

// Peak returns the largest bucket count.
func (h *Histogram) Peak() int {
	peak := 0
	for _, c := range h {
		peak = max(peak, c)
	}
	return peak
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}
