package source

import (
	"context"
	"fmt"
	"image"
	"sync"

	verrors "github.com/matzehuels/viewgrid/pkg/errors"
)

// MemoryFetcher serves images registered in memory. Fetches block while the
// fetcher is held with [MemoryFetcher.Hold].
type MemoryFetcher struct {
	mu     sync.Mutex
	images map[string]image.Image
	gate   chan struct{}
	calls  map[string]int
}

// NewMemoryFetcher creates an empty fetcher.
func NewMemoryFetcher() *MemoryFetcher {
	return &MemoryFetcher{
		images: make(map[string]image.Image),
		calls:  make(map[string]int),
	}
}

// Add registers img as the image of view for imageID.
func (m *MemoryFetcher) Add(imageID, view string, img image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[key(imageID, view)] = img
}

// Hold makes subsequent fetches block until Release.
func (m *MemoryFetcher) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate == nil {
		m.gate = make(chan struct{})
	}
}

// Release unblocks held fetches.
func (m *MemoryFetcher) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Calls returns how often view of imageID was fetched.
func (m *MemoryFetcher) Calls(imageID, view string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key(imageID, view)]
}

func (m *MemoryFetcher) Fetch(ctx context.Context, imageID, view string) (image.Image, error) {
	m.mu.Lock()
	k := key(imageID, view)
	m.calls[k]++
	gate := m.gate
	img, ok := m.images[k]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, verrors.New(verrors.ErrCodeNotFound, "image %s not found", k)
	}
	return img, nil
}

func key(imageID, view string) string {
	return fmt.Sprintf("%s/%s", imageID, view)
}

var _ Fetcher = (*MemoryFetcher)(nil)
