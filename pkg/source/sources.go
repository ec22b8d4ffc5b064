package source

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Sources caches image loads for the bound subject, one per view.
// It is safe for concurrent use.
type Sources struct {
	fetcher Fetcher
	logger  *log.Logger

	mu      sync.Mutex
	imageID string
	ctx     context.Context
	cancel  context.CancelFunc
	futures map[string]*Future
}

// NewSources creates an empty cache over fetcher. No image is bound.
func NewSources(fetcher Fetcher, logger *log.Logger) *Sources {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sources{
		fetcher: fetcher,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		futures: make(map[string]*Future),
	}
}

// ImageID returns the bound image id.
func (s *Sources) ImageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageID
}

// Reset binds imageID, dropping every cached load and cancelling those in
// flight.
func (s *Sources) Reset(imageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.imageID = imageID
	s.futures = make(map[string]*Future)
}

// Load returns the future for view, starting the fetch if this is the first
// request for view since the last Reset.
func (s *Sources) Load(view string) *Future {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.futures[view]; ok {
		return f
	}
	if s.imageID == "" {
		return Resolved(nil, ErrNoImage)
	}

	f := newFuture()
	s.futures[view] = f
	go s.run(s.ctx, s.imageID, view, f)
	return f
}

// Peek returns the future for view without starting a load.
func (s *Sources) Peek(view string) (*Future, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.futures[view]
	return f, ok
}

func (s *Sources) run(ctx context.Context, imageID, view string, f *Future) {
	img, err := s.fetcher.Fetch(ctx, imageID, view)
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("image load failed", "image", imageID, "view", view, "err", err)
	}
	if err == nil {
		s.logger.Debug("image loaded", "image", imageID, "view", view,
			"size", img.Bounds().Size())
	}
	f.complete(img, err)
}

// Prefetch starts loads for views and waits until all of them have finished
// or ctx is done. It returns the first load error.
func (s *Sources) Prefetch(ctx context.Context, views []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, view := range views {
		f := s.Load(view)
		g.Go(func() error {
			select {
			case <-f.Done():
				_, err := f.Result()
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

// Close cancels every in-flight load.
func (s *Sources) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
}
