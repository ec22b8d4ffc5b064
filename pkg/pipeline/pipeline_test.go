package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/matzehuels/viewgrid/pkg/config"
	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/groupstore"
	"github.com/matzehuels/viewgrid/pkg/source"
	"github.com/matzehuels/viewgrid/pkg/view"
	"github.com/matzehuels/viewgrid/pkg/viewer"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"png", false},
		{"jpeg", false},
		{"jpg", false},
		{"json", false},
		{"svg", true},
		{"PNG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{ImageID: "42", Formats: []string{"jpg"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Formats[0] != FormatJPEG || opts.Quality != DefaultJPEGQuality || opts.Timeout != DefaultTimeout {
		t.Errorf("defaults = %+v", opts)
	}

	for _, bad := range []Options{{}, {ImageID: "../etc"}, {ImageID: "1", Width: -1}, {ImageID: "1", Formats: []string{"gif"}}} {
		if err := bad.ValidateAndSetDefaults(); err == nil {
			t.Errorf("%+v: expected error", bad)
		}
	}
}

func twoTone(a, b uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v := a
			if x >= 5 {
				v = b
			}
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

func newRunner(t *testing.T) (*Runner, *groupstore.Memory) {
	t.Helper()
	cfg := config.Default()
	cfg.Width, cfg.Height = 810, 550
	cfg.Views = map[string]view.View{
		"RGB":      {Type: view.TypeImage},
		"mask":     {Type: view.TypeImage},
		"location": {Type: view.TypeBingMap},
	}
	cfg.Groups = []view.Group{
		{Name: "default", Views: []string{"RGB", "mask"}},
		{Name: "map", Views: []string{"RGB", "location"}},
	}
	cfg.SetDefaults()

	fetcher := source.NewMemoryFetcher()
	fetcher.Add("42", "RGB", twoTone(20, 200))
	fetcher.Add("42", "mask", twoTone(0, 255))
	store := groupstore.NewMemory()
	return NewRunner(cfg, fetcher, store, nil), store
}

func TestExecute(t *testing.T) {
	r, store := newRunner(t)
	res, err := r.Execute(context.Background(), Options{ImageID: "42", Formats: []string{"png", "json"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(res.Artifacts["png"]))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	tile := res.State.Tile
	if got, want := img.Bounds().Size(), image.Pt(2*tile.Width, tile.Height); got != want {
		t.Errorf("composite size = %v, want %v", got, want)
	}
	if res.Stats.Views != 2 {
		t.Errorf("views = %d", res.Stats.Views)
	}

	var st viewer.State
	if err := json.Unmarshal(res.Artifacts["json"], &st); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if st.Group != "default" || len(st.Ports) != 2 || st.Ports[1].View != "mask" {
		t.Errorf("state = %+v", st)
	}
	for _, p := range st.Ports {
		if len(p.Layers) != 1 || !p.Layers[0].Drawn {
			t.Errorf("%s not drawn: %+v", p.View, p.Layers)
		}
	}
	if store.Saves() == 0 {
		t.Error("groups not persisted")
	}
}

func TestExecuteJPEG(t *testing.T) {
	r, _ := newRunner(t)
	res, err := r.Execute(context.Background(), Options{ImageID: "42", Group: "map", Formats: []string{"jpg"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(res.Artifacts[FormatJPEG])); err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	if got := res.State.Ports[1].Layers[0].URL; got == "" {
		t.Error("map layer has no URL")
	}
}

func TestExecuteAutoContrast(t *testing.T) {
	r, _ := newRunner(t)
	res, err := r.Execute(context.Background(), Options{ImageID: "42", AutoContrast: true, Formats: []string{"json"}})
	if err != nil {
		t.Fatal(err)
	}
	w := res.State.Windows["RGB"]
	if w.Min != 20 || w.Max != 200 || !w.HasHistogram {
		t.Errorf("RGB window = %+v, want 20-200", w)
	}
	if !res.State.ShowWindows {
		t.Error("windows not shown")
	}
}

func TestExecuteWindows(t *testing.T) {
	r, _ := newRunner(t)
	res, err := r.Execute(context.Background(), Options{
		ImageID:         "42",
		ContrastWindows: map[string]Window{"mask": {Min: 50, Max: 200}},
		Formats:         []string{"json"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if w := res.State.Windows["mask"]; w.Min != 50 || w.Max != 200 {
		t.Errorf("mask window = %+v", w)
	}
	if p := res.State.Ports[1]; p.Widget == nil || p.Widget.Readout != "50 - 200" {
		t.Errorf("widget = %+v", p.Widget)
	}
}

func TestExecuteErrors(t *testing.T) {
	r, _ := newRunner(t)
	tests := []struct {
		name string
		opts Options
		code verrors.Code
	}{
		{"missing image", Options{}, verrors.ErrCodeInvalidInput},
		{"unknown group", Options{ImageID: "42", Group: "nope"}, verrors.ErrCodeGroupNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), tt.opts)
			if !verrors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExecuteMissingView(t *testing.T) {
	r, _ := newRunner(t)
	res, err := r.Execute(context.Background(), Options{ImageID: "7", Formats: []string{"json"}})
	if err != nil {
		t.Fatalf("missing images must not fail the run: %v", err)
	}
	for _, p := range res.State.Ports {
		if p.Layers[0].Drawn {
			t.Errorf("%s drawn without an image", p.View)
		}
	}
}
