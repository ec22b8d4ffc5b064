// Package layout sizes and arranges the tiles of a view grid.
//
// # Overview
//
// Every view of the current group gets one tile. All tiles share the same
// pixel size, derived from the available viewport, the number of tiles and
// the fixed aspect ratio of the subject image:
//
//  1. Reserve [HorizontalMargin] and [VerticalMargin] for surrounding chrome.
//  2. Split the remaining width evenly between the tiles.
//  3. Pick the largest size that keeps the aspect ratio within both limits.
//  4. If the height limit still wins, scale the width down by that factor and
//     re-derive the height from the width.
//
// Widths are floored when splitting so that the row of tiles never exceeds the
// available width; the final width and height are rounded to whole pixels
// with the height always re-derived from the width, which keeps the aspect
// ratio identical across tiles even for odd viewport sizes.
//
// # Arranging
//
// [Arrange] places tiles left to right in a single row with no wrapping:
//
//	size := layout.TileSize(1000, 700, 2, 1.0) // 495x495
//	for _, t := range layout.Arrange(size, 2) {
//	    fmt.Println(t.X, t.Y, t.Width, t.Height)
//	}
package layout
