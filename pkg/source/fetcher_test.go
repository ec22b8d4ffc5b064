package source

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/viewgrid/pkg/cache"
	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/httputil"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(0, 0, color.NRGBA{10, 20, 30, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHTTPFetcher(t *testing.T) {
	body := encodePNG(t, 4, 3)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/load_image/tile_1/RGB":
			_, _ = w.Write(body)
		case "/load_image/tile_1/broken":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := NewHTTPFetcher(srv.URL+"/load_image/",
		WithClient(srv.Client()),
		WithCache(c, time.Hour),
		WithRetry(httputil.Options{Attempts: 1}),
	)
	ctx := context.Background()

	if got, want := f.URL("tile_1", "RGB"), srv.URL+"/load_image/tile_1/RGB"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}

	img, err := f.Fetch(ctx, "tile_1", "RGB")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(4, 3) {
		t.Errorf("size = %v, want 4x3", got)
	}

	// second fetch is served from the byte cache
	if _, err := f.Fetch(ctx, "tile_1", "RGB"); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}

	tests := []struct {
		view string
		code verrors.Code
	}{
		{"missing", verrors.ErrCodeNotFound},
		{"broken", verrors.ErrCodeDecode},
	}
	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			_, err := f.Fetch(ctx, "tile_1", tt.view)
			if got := verrors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestHTTPFetcherUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/", WithClient(srv.Client()))
	_, _ = f.Fetch(context.Background(), "a", "b")
	if ua == "" || ua[:9] != "viewgrid/" {
		t.Errorf("User-Agent = %q", ua)
	}
}
