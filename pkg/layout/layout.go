package layout

import "math"

// Margins reserved around the grid for chrome (pixels).
const (
	HorizontalMargin = 10
	VerticalMargin   = 150
)

// Size is a tile size in whole pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Tile is the geometry of one grid cell.
type Tile struct {
	Index  int `json:"index"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TileSize computes the size shared by tileCount tiles inside a viewport of
// viewportWidth x viewportHeight pixels, keeping width/height == aspectRatio.
//
// A tileCount below 1 is treated as 1 and a non-positive aspect ratio as 1.
// Viewports smaller than the margins yield a zero size.
//
// Height is re-derived from the rounded width, so it can exceed the allowed
// height (viewportHeight - VerticalMargin) by one pixel.
func TileSize(viewportWidth, viewportHeight float64, tileCount int, aspectRatio float64) Size {
	if tileCount < 1 {
		tileCount = 1
	}
	if aspectRatio <= 0 || math.IsNaN(aspectRatio) || math.IsInf(aspectRatio, 0) {
		aspectRatio = 1
	}

	allowedWidth := math.Max(0, math.Floor((viewportWidth-HorizontalMargin)/float64(tileCount)))
	allowedHeight := math.Max(0, viewportHeight-VerticalMargin)
	if allowedWidth == 0 || allowedHeight == 0 {
		return Size{}
	}

	idealWidth := math.Min(allowedWidth, allowedHeight*aspectRatio)
	idealHeight := math.Min(idealWidth/aspectRatio, allowedHeight)

	// Limited horizontally: no scaling. Limited vertically: scale down by the overshoot.
	scale := math.Max(1, idealHeight/allowedHeight)

	width := math.Round(idealWidth / scale)
	height := math.Round(width / aspectRatio)

	return Size{Width: int(width), Height: int(height)}
}

// Arrange lays out n tiles of the given size left to right.
// Column offsets are index × width; all tiles share y = 0.
func Arrange(size Size, n int) []Tile {
	if n <= 0 {
		return nil
	}
	tiles := make([]Tile, n)
	for i := range tiles {
		tiles[i] = Tile{
			Index:  i,
			X:      i * size.Width,
			Y:      0,
			Width:  size.Width,
			Height: size.Height,
		}
	}
	return tiles
}

// Bounds returns the total size covered by n tiles of the given size.
func Bounds(size Size, n int) Size {
	if n <= 0 {
		return Size{}
	}
	return Size{Width: size.Width * n, Height: size.Height}
}
