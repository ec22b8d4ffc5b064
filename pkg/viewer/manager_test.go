package viewer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/viewgrid/pkg/contrast"
	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/groupstore"
	"github.com/matzehuels/viewgrid/pkg/layer"
	"github.com/matzehuels/viewgrid/pkg/layout"
	"github.com/matzehuels/viewgrid/pkg/session"
	"github.com/matzehuels/viewgrid/pkg/source"
	"github.com/matzehuels/viewgrid/pkg/transform"
	"github.com/matzehuels/viewgrid/pkg/view"
)

func solid(v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

type harness struct {
	m        *Manager
	loop     *Loop
	fetcher  *source.MemoryFetcher
	store    *groupstore.Memory
	messages []string
}

func newHarness(t *testing.T, groups ...view.Group) *harness {
	t.Helper()
	views := map[string]view.View{
		"RGB":      {Type: view.TypeImage, Description: "RGB image"},
		"mask":     {Type: view.TypeImage},
		"heatmap":  {Type: view.TypeImage},
		"ct_scan":  {Type: view.TypeImage},
		"location": {Type: view.TypeBingMap},
	}
	if len(groups) == 0 {
		groups = []view.Group{
			{Name: "default", Views: []string{"RGB", "mask"}},
			{Name: "masked", Views: []string{"mask"}},
			{Name: "raw", Views: []string{"RGB", "ct_scan", "location"}},
		}
	}
	h := &harness{
		loop:    NewLoop(64),
		fetcher: source.NewMemoryFetcher(),
		store:   groupstore.NewMemory(),
	}
	for i, name := range []string{"RGB", "mask", "heatmap", "ct_scan"} {
		h.fetcher.Add("img-1", name, solid(uint8(40*i+10)))
	}
	h.m = New(h.loop, Options{
		Views:        views,
		Groups:       groups,
		DefaultGroup: "default",
		AspectRatio:  1,
		Width:        1010,
		Height:       650,
		Fetcher:      h.fetcher,
		Store:        h.store,
		Notifier:     NotifierFunc(func(msg string) { h.messages = append(h.messages, msg) }),
	})
	t.Cleanup(func() { h.m.Close() })
	h.m.SetImage("img-1", session.Location{Lat: 47.6, Lon: -122.3})
	return h
}

// settle runs posted re-renders until no pixel layer waits on a load.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		h.loop.Drain()
		waiting := false
		for _, l := range h.m.Layers(layer.KindRGB) {
			if l.(*layer.Pixel).Waiting() {
				waiting = true
			}
		}
		if !waiting {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("layers still waiting on image loads")
}

func portViews(m *Manager) []string {
	var names []string
	for _, p := range m.Ports() {
		names = append(names, p.View().Name)
	}
	return names
}

func TestShowGroup(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatalf("ShowGroup: %v", err)
	}
	h.settle(t)

	if got, want := portViews(h.m), []string{"RGB", "mask"}; !slices.Equal(got, want) {
		t.Errorf("views = %v, want %v", got, want)
	}
	want := layout.TileSize(1010, 650, 2, 1)
	for i, p := range h.m.Ports() {
		if p.Size() != want {
			t.Errorf("port %d size = %v, want %v", i, p.Size(), want)
		}
		if p.Position() != image.Pt(i*want.Width, 0) {
			t.Errorf("port %d position = %v", i, p.Position())
		}
	}
	for _, l := range h.m.Layers(layer.KindRGB) {
		if !l.(*layer.Pixel).Drawn() {
			t.Errorf("%s not drawn", l.View().Name)
		}
	}
	if h.store.Saves() != 1 {
		t.Errorf("saves = %d, want 1", h.store.Saves())
	}
}

func TestShowGroupIdempotent(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup("raw"); err != nil {
		t.Fatal(err)
	}
	first := h.m.Snapshot()
	if err := h.m.ShowGroup("raw"); err != nil {
		t.Fatal(err)
	}
	second := h.m.Snapshot()

	if len(first.Ports) != len(second.Ports) {
		t.Fatalf("port count changed: %d -> %d", len(first.Ports), len(second.Ports))
	}
	for i := range first.Ports {
		a, b := first.Ports[i], second.Ports[i]
		if a.View != b.View || a.Tile != b.Tile {
			t.Errorf("port %d: %+v != %+v", i, a, b)
		}
	}
}

func TestShowGroupUnknown(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	err := h.m.ShowGroup("nope")
	if !verrors.Is(err, verrors.ErrCodeGroupNotFound) {
		t.Fatalf("err = %v, want GROUP_NOT_FOUND", err)
	}
	if h.m.CurrentGroup() != "default" || len(h.m.Ports()) != 2 {
		t.Errorf("state changed: group %q, %d ports", h.m.CurrentGroup(), len(h.m.Ports()))
	}
}

func TestShowGroupSkipsMissingViews(t *testing.T) {
	h := newHarness(t, view.Group{Name: "default", Views: []string{"RGB", "ghost", "mask"}})
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	if got, want := portViews(h.m), []string{"RGB", "mask"}; !slices.Equal(got, want) {
		t.Errorf("views = %v, want %v", got, want)
	}
	if got := h.m.TileSize(); got != layout.TileSize(1010, 650, 2, 1) {
		t.Errorf("tile = %v, want layout for 2 tiles", got)
	}
}

func TestShowNextGroupWraps(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	var seen []string
	for range 3 {
		if err := h.m.ShowNextGroup(); err != nil {
			t.Fatal(err)
		}
		seen = append(seen, h.m.CurrentGroup())
	}
	if want := []string{"masked", "raw", "default"}; !slices.Equal(seen, want) {
		t.Errorf("groups = %v, want %v", seen, want)
	}
	if want := []string{"Group: masked", "Group: raw", "Group: default"}; !slices.Equal(h.messages, want) {
		t.Errorf("messages = %v, want %v", h.messages, want)
	}
}

func TestAddView(t *testing.T) {
	h := newHarness(t, view.Group{Name: "default", Views: []string{"RGB", "mask"}})
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	if err := h.m.AddView("heatmap", 1); err != nil {
		t.Fatalf("AddView: %v", err)
	}
	if got, want := portViews(h.m), []string{"RGB", "heatmap", "mask"}; !slices.Equal(got, want) {
		t.Errorf("views = %v, want %v", got, want)
	}
	if got := h.m.TileSize(); got != layout.TileSize(1010, 650, 3, 1) {
		t.Errorf("tile = %v", got)
	}
	saved, _ := h.store.Load(context.Background())
	if len(saved) != 1 || !slices.Equal(saved[0].Views, []string{"RGB", "heatmap", "mask"}) {
		t.Errorf("saved = %+v", saved)
	}
}

func TestAddViewOutOfRangeAppends(t *testing.T) {
	for _, pos := range []int{-1, 99} {
		h := newHarness(t, view.Group{Name: "default", Views: []string{"RGB", "mask"}})
		if err := h.m.AddView("heatmap", pos); err != nil {
			t.Fatal(err)
		}
		if got, want := portViews(h.m), []string{"RGB", "mask", "heatmap"}; !slices.Equal(got, want) {
			t.Errorf("pos %d: views = %v, want %v", pos, got, want)
		}
	}
}

func TestReplaceAndRemoveView(t *testing.T) {
	h := newHarness(t, view.Group{Name: "default", Views: []string{"RGB", "mask"}})
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	if err := h.m.ReplaceView(0, "ct_scan"); err != nil {
		t.Fatal(err)
	}
	if got, want := portViews(h.m), []string{"ct_scan", "mask"}; !slices.Equal(got, want) {
		t.Errorf("after replace: %v, want %v", got, want)
	}
	if err := h.m.RemoveView(1); err != nil {
		t.Fatal(err)
	}
	if got, want := portViews(h.m), []string{"ct_scan"}; !slices.Equal(got, want) {
		t.Errorf("after remove: %v, want %v", got, want)
	}

	saves := h.store.Saves()
	if err := h.m.ReplaceView(5, "RGB"); err != nil {
		t.Fatal(err)
	}
	if err := h.m.RemoveView(5); err != nil {
		t.Fatal(err)
	}
	if h.store.Saves() != saves {
		t.Errorf("out-of-range edits rebuilt the grid")
	}
}

func TestRemoveLastViewHidesAffordance(t *testing.T) {
	h := newHarness(t, view.Group{Name: "default", Views: []string{"RGB"}})
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	p, err := h.m.Port(0)
	if err != nil {
		t.Fatal(err)
	}
	if p.Controls().Remove != nil {
		t.Error("single tile offers a remove button")
	}
}

func TestTransformSurvivesRebuild(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	h.m.Pan(3, 4)
	h.m.Zoom(2, 0, 0)
	want, _ := h.m.Transform()

	if err := h.m.ShowNextGroup(); err != nil {
		t.Fatal(err)
	}
	for _, p := range h.m.Ports() {
		for _, px := range p.Pixels() {
			if px.Transform() != want {
				t.Errorf("%s transform = %+v, want %+v", px.View().Name, px.Transform(), want)
			}
		}
	}
}

func TestTransformWithoutPorts(t *testing.T) {
	h := newHarness(t)
	got, ok := h.m.Transform()
	if ok || got != transform.Identity() {
		t.Errorf("Transform() = %+v, %v", got, ok)
	}
}

func TestHistogramCachedAcrossRenders(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	h.settle(t)
	first := h.m.ContrastWindow("RGB").Histogram
	if first == nil {
		t.Fatal("no histogram after render")
	}
	h.m.Render()
	h.settle(t)
	if h.m.ContrastWindow("RGB").Histogram != first {
		t.Error("histogram recomputed on re-render")
	}
	if h.fetcher.Calls("img-1", "RGB") != 1 {
		t.Errorf("fetched %d times", h.fetcher.Calls("img-1", "RGB"))
	}
}

func TestSetImageDropsHistograms(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	h.settle(t)
	h.m.SetContrastWindow("RGB", 10, 20)
	h.m.SetImage("img-2", session.Location{})

	w := h.m.ContrastWindow("RGB")
	if w.Histogram != nil {
		t.Error("histogram kept across images")
	}
	if w.Min != 10 || w.Max != 20 {
		t.Errorf("window = %d-%d, want 10-20", w.Min, w.Max)
	}
	if len(h.m.Ports()) != 0 {
		t.Error("ports not cleared")
	}
}

func TestSetContrastWindow(t *testing.T) {
	h := newHarness(t, view.Group{Name: "default", Views: []string{"ct_scan"}})
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	h.settle(t)
	hist := h.m.ContrastWindow("ct_scan").Histogram

	h.m.SetContrastWindow("ct_scan", 50, 200)
	w := h.m.ContrastWindow("ct_scan")
	if w.Min != 50 || w.Max != 200 {
		t.Errorf("window = %d-%d, want 50-200", w.Min, w.Max)
	}
	if w.Histogram != hist {
		t.Error("histogram not preserved")
	}
	if got := h.m.ContrastWindow("fresh"); got.Min != contrast.MinValue || got.Max != contrast.MaxValue || got.Histogram != nil {
		t.Errorf("default window = %+v", got)
	}
}

func TestToggleContrastWindows(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	h.m.ToggleContrastWindows()
	for _, p := range h.m.Ports() {
		if !p.Widget().Visible {
			t.Errorf("%s widget hidden", p.View().Name)
		}
	}
	h.m.ToggleContrastWindows()
	if h.m.ShowContrastWindows() {
		t.Error("flag still on")
	}
	for _, p := range h.m.Ports() {
		if p.Widget().Visible {
			t.Errorf("%s widget visible", p.View().Name)
		}
	}
}

func TestControlsRestoredAfterRebuild(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	h.m.ToggleControls()
	if err := h.m.ShowNextGroup(); err != nil {
		t.Fatal(err)
	}
	for _, p := range h.m.Ports() {
		if !p.Controls().Visible {
			t.Errorf("%s controls hidden after rebuild", p.View().Name)
		}
	}
}

func TestLayers(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup("raw"); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		kind layer.Kind
		want int
	}{
		{"", 3},
		{layer.KindRGB, 2},
		{layer.KindBingMap, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := len(h.m.Layers(tt.kind)); got != tt.want {
				t.Errorf("Layers(%q) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestSetImageLocationUpdatesMap(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup("raw"); err != nil {
		t.Fatal(err)
	}
	h.m.SetImageLocation(session.Location{Lat: 1.5, Lon: 2.5})
	m := h.m.Layers(layer.KindBingMap)[0].(*layer.Map)
	if want := "cp=1.5~2.5"; !strings.Contains(m.URL(), want) {
		t.Errorf("URL %q lacks %q", m.URL(), want)
	}
}

func TestAddStandardLayer(t *testing.T) {
	h := newHarness(t)
	built := 0
	h.m.AddStandardLayer(func(_ *layer.Env, _ layer.Owner, v view.View, _ layout.Size) layer.Layer {
		built++
		return layer.NewBase(v)
	}, nil)
	if err := h.m.ShowGroup("raw"); err != nil {
		t.Fatal(err)
	}
	if built != 3 {
		t.Errorf("built = %d, want 3", built)
	}
	if got := len(h.m.Layers(layer.KindBase)); got != 3 {
		t.Errorf("base layers = %d, want 3", got)
	}
}

func TestComposite(t *testing.T) {
	h := newHarness(t)
	if err := h.m.ShowGroup(""); err != nil {
		t.Fatal(err)
	}
	h.settle(t)
	img := h.m.Composite()
	tile := h.m.TileSize()
	if got, want := img.Bounds().Size(), image.Pt(2*tile.Width, tile.Height); got != want {
		t.Fatalf("size = %v, want %v", got, want)
	}
	if got := img.NRGBAAt(1, 1); got != (color.NRGBA{10, 10, 10, 255}) {
		t.Errorf("first tile pixel = %v", got)
	}
	if got := img.NRGBAAt(tile.Width+1, 1); got != (color.NRGBA{50, 50, 50, 255}) {
		t.Errorf("second tile pixel = %v", got)
	}
}

func TestLoadGroups(t *testing.T) {
	h := newHarness(t)
	if err := h.store.Save(context.Background(), []view.Group{{Name: "saved", Views: []string{"heatmap"}}}); err != nil {
		t.Fatal(err)
	}
	if err := h.m.LoadGroups(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.m.CurrentGroup() != "saved" {
		t.Errorf("current = %q, want saved", h.m.CurrentGroup())
	}
}

func TestLoop(t *testing.T) {
	l := NewLoop(4)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(stopped)
	}()

	n := 0
	for range 3 {
		if err := l.Do(ctx, func() error { n++; return nil }); err != nil {
			t.Fatal(err)
		}
	}
	if n != 3 {
		t.Errorf("n = %d", n)
	}
	errBoom := errors.New("boom")
	if err := l.Do(ctx, func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Errorf("err = %v", err)
	}

	cancel()
	<-stopped
	if err := l.Do(context.Background(), func() error { return nil }); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("after stop: %v", err)
	}
}

func TestLoopDrain(t *testing.T) {
	l := NewLoop(4)
	var order []int
	for i := range 3 {
		l.Post(func() { order = append(order, i) })
	}
	if n := l.Drain(); n != 3 {
		t.Errorf("Drain = %d", n)
	}
	if !slices.Equal(order, []int{0, 1, 2}) {
		t.Errorf("order = %v", order)
	}
}
