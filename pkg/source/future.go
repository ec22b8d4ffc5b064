package source

import (
	"errors"
	"image"
	"sync"
)

// ErrNotReady is returned by [Future.Result] while the load is in flight.
var ErrNotReady = errors.New("source not ready")

// ErrNoImage is the result of loads requested while no image is bound.
var ErrNoImage = errors.New("no image bound")

// Future is the eventual result of one image load.
type Future struct {
	done chan struct{}
	once sync.Once
	img  image.Image
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future that is already complete.
func Resolved(img image.Image, err error) *Future {
	f := newFuture()
	f.complete(img, err)
	return f
}

// Done is closed once the load has finished, successfully or not.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the load has finished.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the loaded image, or ErrNotReady while in flight.
func (f *Future) Result() (image.Image, error) {
	if !f.Ready() {
		return nil, ErrNotReady
	}
	return f.img, f.err
}

func (f *Future) complete(img image.Image, err error) {
	f.once.Do(func() {
		f.img, f.err = img, err
		close(f.done)
	})
}
