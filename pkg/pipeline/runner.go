package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/viewgrid/pkg/cache"
	"github.com/matzehuels/viewgrid/pkg/config"
	"github.com/matzehuels/viewgrid/pkg/contrast"
	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/groupstore"
	"github.com/matzehuels/viewgrid/pkg/httputil"
	"github.com/matzehuels/viewgrid/pkg/source"
	"github.com/matzehuels/viewgrid/pkg/viewer"
)

// Runner renders composites for one configuration.
//
// The Runner is stateless apart from its dependencies: every Execute builds
// its own manager and loop, so multiple goroutines can share a Runner.
type Runner struct {
	Config  *config.Config
	Fetcher source.Fetcher
	Store   groupstore.Store
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil store disables group persistence and
// restoration; a nil logger uses log.Default().
func NewRunner(cfg *config.Config, fetcher source.Fetcher, store groupstore.Store, logger *log.Logger) *Runner {
	if store == nil {
		store = groupstore.Null{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Config: cfg, Fetcher: fetcher, Store: store, Logger: logger}
}

// NewFetcher builds the HTTP image fetcher for cfg with bytes cached in c.
func NewFetcher(cfg *config.Config, c cache.Cache, logger *log.Logger) *source.HTTPFetcher {
	return source.NewHTTPFetcher(cfg.ViewURL,
		source.WithClient(&http.Client{Timeout: cfg.Fetch.Timeout.Duration}),
		source.WithCache(c, cfg.Cache.TTL.Duration),
		source.WithKeyer(cache.ViewKeyer{Prefix: cfg.Cache.Prefix}),
		source.WithRetry(httputil.Options{Attempts: cfg.Fetch.Attempts, Delay: 500 * time.Millisecond}),
		source.WithLogger(logger),
	)
}

// ManagerOptions returns the viewer options for cfg.
func ManagerOptions(cfg *config.Config, fetcher source.Fetcher, store groupstore.Store, logger *log.Logger) viewer.Options {
	return viewer.Options{
		Views:        cfg.Views,
		Groups:       cfg.Groups,
		DefaultGroup: cfg.DefaultGroup,
		AspectRatio:  cfg.AspectRatio,
		Width:        cfg.Width,
		Height:       cfg.Height,
		Filters:      cfg.Filters,
		MapURL:       cfg.MapURL,
		Fetcher:      fetcher,
		Store:        store,
		Logger:       logger,
	}
}

// Execute binds the image, shows the group, waits for its views and
// encodes the composite in every requested format.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeInvalidInput, err, "invalid options")
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	mo := ManagerOptions(r.Config, r.Fetcher, r.Store, opts.Logger)
	if opts.Width > 0 {
		mo.Width = opts.Width
	}
	if opts.Height > 0 {
		mo.Height = opts.Height
	}
	if opts.Filters != nil {
		mo.Filters = opts.Filters.Normalize()
	}

	loop := viewer.NewLoop(64)
	go loop.Run(ctx)
	m := viewer.New(loop, mo)
	defer func() {
		_ = loop.Do(context.WithoutCancel(ctx), func() error { m.Clear(); return nil })
		m.Sources().Close()
	}()

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: bind and build
	renderStart := time.Now()
	if err := loop.Do(ctx, func() error {
		if err := m.LoadGroups(ctx); err != nil {
			opts.Logger.Warn("restoring view groups failed", "err", err)
		}
		m.SetImage(opts.ImageID, opts.Location)
		for name, w := range opts.ContrastWindows {
			m.SetContrastWindow(name, w.Min, w.Max)
		}
		if opts.ShowContrastWindows || opts.AutoContrast {
			m.ToggleContrastWindows()
		}
		return m.ShowGroup(opts.Group)
	}); err != nil {
		return nil, err
	}
	buildTime := time.Since(renderStart)

	// Stage 2: fetch
	fetchStart := time.Now()
	var views []string
	_ = loop.Do(ctx, func() error {
		for _, p := range m.Ports() {
			if p.View().IsImage() {
				views = append(views, p.View().Name)
			}
		}
		return nil
	})
	if err := m.Sources().Prefetch(ctx, views); err != nil {
		// Failed views stay blank; the composite is still produced.
		opts.Logger.Warn("some views failed to load", "err", err)
	}
	result.Stats.FetchTime = time.Since(fetchStart)
	opts.Logger.Info("fetched views", "image", opts.ImageID, "views", len(views), "duration", result.Stats.FetchTime)

	// Stage 3: render
	var composite *image.NRGBA
	renderStart = time.Now()
	if err := loop.Do(ctx, func() error {
		m.Render()
		if opts.AutoContrast {
			applyAutoContrast(m)
		}
		composite = m.Composite()
		result.State = m.Snapshot()
		return nil
	}); err != nil {
		return nil, err
	}
	result.Stats.RenderTime = buildTime + time.Since(renderStart)
	result.Stats.Views = len(result.State.Ports)
	result.Stats.Width = composite.Bounds().Dx()
	result.Stats.Height = composite.Bounds().Dy()

	// Stage 4: encode
	encodeStart := time.Now()
	for _, format := range opts.Formats {
		data, err := Encode(composite, result.State, format, opts.Quality)
		if err != nil {
			return nil, err
		}
		result.Artifacts[format] = data
	}
	result.Stats.EncodeTime = time.Since(encodeStart)

	opts.Logger.Info("rendered composite",
		"group", result.State.Group,
		"size", fmt.Sprintf("%dx%d", result.Stats.Width, result.Stats.Height),
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime+result.Stats.EncodeTime)

	return result, nil
}

// applyAutoContrast sets each drawn image view's window from the quantiles
// of its histogram.
func applyAutoContrast(m *viewer.Manager) {
	for _, p := range m.Ports() {
		name := p.View().Name
		w := m.ContrastWindow(name)
		if w.Histogram == nil {
			continue
		}
		auto := contrast.AutoWindow(w.Histogram, DefaultAutoLow, DefaultAutoHigh)
		m.SetContrastWindow(name, auto.Min, auto.Max)
	}
}

// Encode serialises the composite (png, jpeg) or the state (json).
func Encode(img image.Image, state viewer.State, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch NormalizeFormat(format) {
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(state)
	default:
		return nil, verrors.New(verrors.ErrCodeInvalidFormat, "unsupported format: %s", format)
	}
	if err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeInternal, err, "encode %s", format)
	}
	return buf.Bytes(), nil
}

// Close releases the store.
func (r *Runner) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}
