package layout_test

import (
	"fmt"

	"github.com/matzehuels/viewgrid/pkg/layout"
)

func ExampleTileSize() {
	// 1000x700 window, two tiles, square subject image
	size := layout.TileSize(1000, 700, 2, 1.0)
	fmt.Println(size.Width, "x", size.Height)
	// Output:
	// 495 x 495
}

func ExampleArrange() {
	size := layout.TileSize(1000, 700, 2, 1.0)
	for _, t := range layout.Arrange(size, 2) {
		fmt.Println(t.Index, t.X, t.Y)
	}
	// Output:
	// 0 0 0
	// 1 495 0
}
