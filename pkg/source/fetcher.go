package source

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"net/url"
	"time"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/viewgrid/pkg/buildinfo"
	"github.com/matzehuels/viewgrid/pkg/cache"
	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/httputil"
	"github.com/matzehuels/viewgrid/pkg/observability"
)

// Fetcher loads the image of one view of a subject.
type Fetcher interface {
	Fetch(ctx context.Context, imageID, view string) (image.Image, error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc func(ctx context.Context, imageID, view string) (image.Image, error)

func (f FetcherFunc) Fetch(ctx context.Context, imageID, view string) (image.Image, error) {
	return f(ctx, imageID, view)
}

// HTTPFetcher fetches view images from the image host.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	retry   httputil.Options
	logger  *log.Logger
}

// Option configures an [HTTPFetcher].
type Option func(*HTTPFetcher)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithCache stores fetched bytes in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(f *HTTPFetcher) { f.cache, f.ttl = c, ttl }
}

// WithKeyer sets the cache key derivation.
func WithKeyer(k cache.Keyer) Option {
	return func(f *HTTPFetcher) { f.keyer = k }
}

// WithRetry overrides the retry policy.
func WithRetry(opts httputil.Options) Option {
	return func(f *HTTPFetcher) { f.retry = opts }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *HTTPFetcher) { f.logger = l }
}

// NewHTTPFetcher creates a fetcher for the host at baseURL. The base URL is
// used verbatim as prefix, e.g. "http://host/segmentation/load_image/".
func NewHTTPFetcher(baseURL string, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   cache.NewNullCache(),
		keyer:   cache.NewDefaultKeyer(),
		ttl:     cache.DefaultTTL,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the address of the view image.
func (f *HTTPFetcher) URL(imageID, view string) string {
	return f.baseURL + url.PathEscape(imageID) + "/" + url.PathEscape(view)
}

// Fetch downloads and decodes the view image, consulting the byte cache first.
func (f *HTTPFetcher) Fetch(ctx context.Context, imageID, view string) (image.Image, error) {
	start := time.Now()
	observability.Fetch().OnFetchStart(ctx, imageID, view)

	data, err := f.bytes(ctx, f.keyer.ImageKey(f.baseURL, imageID, view), f.URL(imageID, view))
	var img image.Image
	if err == nil {
		img, err = decode(data)
	}
	observability.Fetch().OnFetchComplete(ctx, imageID, view, len(data), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (f *HTTPFetcher) bytes(ctx context.Context, key, u string) ([]byte, error) {
	data, hit, err := f.cache.Get(ctx, key)
	if err != nil {
		f.logger.Warn("cache read failed", "url", u, "err", err)
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, "image")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "image")

	data, err = httputil.Get(ctx, withUserAgent(f.client), u, f.retry)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		var serr *httputil.StatusError
		if errors.As(err, &serr) && serr.StatusCode == http.StatusNotFound {
			return nil, verrors.Wrap(verrors.ErrCodeNotFound, err, "image not found: %s", u)
		}
		return nil, verrors.Wrap(verrors.ErrCodeNetwork, err, "fetch %s", u)
	}

	if err := f.cache.Set(ctx, key, data, f.ttl); err != nil {
		f.logger.Warn("cache write failed", "url", u, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "image", len(data))
	}
	return data, nil
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeDecode, err, "decode image")
	}
	return img, nil
}

// userAgentTransport stamps every request with the build's User-Agent.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", buildinfo.UserAgent())
	return t.base.RoundTrip(r)
}

func withUserAgent(c *http.Client) *http.Client {
	if _, ok := c.Transport.(userAgentTransport); ok {
		return c
	}
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *c
	wrapped.Transport = userAgentTransport{base: base}
	return &wrapped
}

// Ensure interface compliance.
var _ Fetcher = (*HTTPFetcher)(nil)
