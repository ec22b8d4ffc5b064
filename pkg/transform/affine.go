// Package transform provides the 2-D affine transform shared by tile canvases.
//
// Pan and zoom gestures are recorded as an [Affine] value owned by each pixel
// canvas. The manager captures the value before tearing tiles down and
// re-applies it to the rebuilt canvases, so a group switch never resets the
// operator's view of the subject.
//
// The matrix follows the 2-D canvas convention:
//
//	| A C E |
//	| B D F |
//	| 0 0 1 |
//
// mapping a source point (x, y) to (A·x + C·y + E, B·x + D·y + F).
package transform

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine is a 2-D affine transform in canvas convention.
type Affine struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
	E float64 `json:"e"`
	F float64 `json:"f"`
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{A: 1, D: 1}
}

// Translation returns a transform moving points by (dx, dy).
func Translation(dx, dy float64) Affine {
	return Affine{A: 1, D: 1, E: dx, F: dy}
}

// Scaling returns a transform scaling by (sx, sy) around the origin.
func Scaling(sx, sy float64) Affine {
	return Affine{A: sx, D: sy}
}

// Then returns the transform that applies t first and then next.
func (t Affine) Then(next Affine) Affine {
	return Affine{
		A: next.A*t.A + next.C*t.B,
		B: next.B*t.A + next.D*t.B,
		C: next.A*t.C + next.C*t.D,
		D: next.B*t.C + next.D*t.D,
		E: next.A*t.E + next.C*t.F + next.E,
		F: next.B*t.E + next.D*t.F + next.F,
	}
}

// Pan moves the view by (dx, dy) device pixels.
func (t Affine) Pan(dx, dy float64) Affine {
	return t.Then(Translation(dx, dy))
}

// Zoom scales the view by factor, keeping the device point (cx, cy) fixed.
// Non-positive factors leave the transform unchanged.
func (t Affine) Zoom(factor, cx, cy float64) Affine {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return t
	}
	return t.Then(Translation(-cx, -cy)).Then(Scaling(factor, factor)).Then(Translation(cx, cy))
}

// Apply maps the point (x, y).
func (t Affine) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.C*y + t.E, t.B*x + t.D*y + t.F
}

// Det returns the determinant of the linear part.
func (t Affine) Det() float64 {
	return t.A*t.D - t.B*t.C
}

// Invert returns the inverse transform. ok is false for singular transforms.
func (t Affine) Invert() (inv Affine, ok bool) {
	det := t.Det()
	if det == 0 {
		return Affine{}, false
	}
	return Affine{
		A: t.D / det,
		B: -t.B / det,
		C: -t.C / det,
		D: t.A / det,
		E: (t.C*t.F - t.D*t.E) / det,
		F: (t.B*t.E - t.A*t.F) / det,
	}, true
}

// IsIdentity reports whether t is exactly the identity.
func (t Affine) IsIdentity() bool {
	return t == Identity()
}

// Aff3 converts t to the row-major matrix used by golang.org/x/image/draw.
func (t Affine) Aff3() f64.Aff3 {
	return f64.Aff3{t.A, t.C, t.E, t.B, t.D, t.F}
}
