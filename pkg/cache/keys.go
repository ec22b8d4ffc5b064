package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Keyer derives the cache key of a view image.
type Keyer interface {
	ImageKey(host, imageID, view string) string
}

// ViewKeyer builds readable keys of the form
//
//	<prefix>view:<host hash>:<image id>:<view>
//
// The host is hashed so that the same subject served by two hosts never
// collides. Prefix lets several deployments share one Redis instance.
type ViewKeyer struct {
	Prefix string
}

// NewDefaultKeyer returns a ViewKeyer without prefix.
func NewDefaultKeyer() Keyer { return ViewKeyer{} }

func (k ViewKeyer) ImageKey(host, imageID, view string) string {
	return k.Prefix + "view:" + Hash([]byte(host))[:12] + ":" + imageID + ":" + view
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
