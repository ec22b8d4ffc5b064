// Package cache stores fetched view images so that reopening a subject does
// not hit the image host again.
//
// Three backends implement [Cache]:
//
//   - [Null]: never stores anything (caching disabled)
//   - [FileCache]: one entry file per image below a directory, for the CLI
//   - [RedisCache]: shared cache for several viewer instances
//
// Keys name the image host, subject and view; see [ViewKeyer].
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the lifetime of a cached image.
const DefaultTTL = 24 * time.Hour

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the bytes stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Null never stores anything.
type Null struct{}

// NewNullCache returns the disabled cache.
func NewNullCache() Cache { return Null{} }

func (Null) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Null) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Null) Delete(context.Context, string) error                     { return nil }
func (Null) Close() error                                             { return nil }

var _ Cache = Null{}
