package filter

import (
	"image"
	"image/color"
	"testing"
)

func solid(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestCSS(t *testing.T) {
	tests := []struct {
		name string
		f    Filters
		want string
	}{
		{"default", Default(), "brightness(100%) saturate(100%)"},
		{"inverted", Filters{Invert: true, Brightness: 120, Saturation: 50}, "invert(1) brightness(120%) saturate(50%)"},
		{"fractional", Filters{Brightness: 87.5, Saturation: 100}, "brightness(87.5%) saturate(100%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.CSS(); got != tt.want {
				t.Errorf("CSS() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyIdentity(t *testing.T) {
	src := solid(color.NRGBA{10, 200, 30, 255})
	out := Default().Apply(src)
	if got := out.NRGBAAt(1, 1); got != (color.NRGBA{10, 200, 30, 255}) {
		t.Errorf("identity Apply changed pixel to %v", got)
	}
	// Contrast is inert.
	out = Filters{Contrast: true, Brightness: 100, Saturation: 100}.Apply(src)
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{10, 200, 30, 255}) {
		t.Errorf("contrast flag changed pixel to %v", got)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		f    Filters
		in   color.NRGBA
		want color.NRGBA
	}{
		{"invert", Filters{Invert: true, Brightness: 100, Saturation: 100}, color.NRGBA{0, 100, 255, 255}, color.NRGBA{255, 155, 0, 255}},
		{"half brightness", Filters{Brightness: 50, Saturation: 100}, color.NRGBA{200, 100, 50, 128}, color.NRGBA{100, 50, 25, 128}},
		{"brightness saturates", Filters{Brightness: 300, Saturation: 100}, color.NRGBA{100, 100, 100, 255}, color.NRGBA{255, 255, 255, 255}},
		{"desaturate grey stays grey", Filters{Brightness: 100, Saturation: 0}, color.NRGBA{80, 80, 80, 255}, color.NRGBA{80, 80, 80, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.f.Apply(solid(tt.in))
			if got := out.NRGBAAt(0, 1); got != tt.want {
				t.Errorf("Apply() pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyFullDesaturationIsGrey(t *testing.T) {
	out := Filters{Brightness: 100, Saturation: 0}.Apply(solid(color.NRGBA{255, 0, 0, 255}))
	c := out.NRGBAAt(0, 0)
	if c.R != c.G || c.G != c.B {
		t.Errorf("saturate(0%%) produced non-grey %v", c)
	}
}

func TestNormalize(t *testing.T) {
	f := Filters{Brightness: -20, Saturation: -1}.Normalize()
	if f.Brightness != 0 || f.Saturation != 0 {
		t.Errorf("Normalize() = %+v", f)
	}
}
