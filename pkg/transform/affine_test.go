package transform

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		tr     Affine
		x, y   float64
		wx, wy float64
	}{
		{"identity", Identity(), 3, 4, 3, 4},
		{"translation", Translation(10, -5), 3, 4, 13, -1},
		{"scaling", Scaling(2, 3), 3, 4, 6, 12},
		{"pan after scale", Scaling(2, 2).Pan(1, 1), 3, 4, 7, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.tr.Apply(tt.x, tt.y)
			if !approx(x, tt.wx) || !approx(y, tt.wy) {
				t.Errorf("Apply(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, x, y, tt.wx, tt.wy)
			}
		})
	}
}

func TestZoomKeepsCenterFixed(t *testing.T) {
	tr := Identity().Pan(20, 10).Zoom(2, 100, 50)

	// The device point under (100, 50) before zooming stays there.
	inv, ok := Identity().Pan(20, 10).Invert()
	if !ok {
		t.Fatal("Invert failed")
	}
	sx, sy := inv.Apply(100, 50)
	x, y := tr.Apply(sx, sy)
	if !approx(x, 100) || !approx(y, 50) {
		t.Errorf("zoom center moved to (%v, %v)", x, y)
	}

	if got := tr.Zoom(0, 1, 1); got != tr {
		t.Error("Zoom(0) should be a no-op")
	}
}

func TestInvert(t *testing.T) {
	tr := Scaling(2, 4).Pan(5, 7)
	inv, ok := tr.Invert()
	if !ok {
		t.Fatal("Invert failed")
	}
	x, y := inv.Apply(tr.Apply(3, 9))
	if !approx(x, 3) || !approx(y, 9) {
		t.Errorf("round trip = (%v, %v), want (3, 9)", x, y)
	}

	if _, ok := Scaling(0, 1).Invert(); ok {
		t.Error("singular transform should not invert")
	}
}

func TestIsIdentity(t *testing.T) {
	if !Identity().IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
	if Translation(1, 0).IsIdentity() {
		t.Error("Translation(1, 0).IsIdentity() = true")
	}
	if (Affine{}).IsIdentity() {
		t.Error("zero Affine should not be identity")
	}
}

func TestAff3(t *testing.T) {
	tr := Affine{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}
	m := tr.Aff3()
	want := [6]float64{1, 3, 5, 2, 4, 6}
	for i := range want {
		if m[i] != want[i] {
			t.Fatalf("Aff3() = %v, want %v", m, want)
		}
	}
}
