// Package session models the composition session: the subject image being
// shown, its geographic location, and an identity for the lifetime of that
// binding.
//
// A new [Session] is created every time a subject image is bound. Caches and
// in-flight image loads are scoped to the session id, so rebinding the same
// image id still starts from a clean slate.
//
// Sessions can be persisted with a [Store] so that a restarted server
// resumes the last subject:
//
//	store, err := session.NewFileStore(filepath.Join(dir, "sessions.toml"))
//	if err != nil {
//	    return err
//	}
//	sess, err := store.Get(ctx, session.LastID)
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidLocation is returned when a location string cannot be parsed.
	ErrInvalidLocation = errors.New("invalid location")
)

// LastID is the key under which the most recent session is persisted.
const LastID = "last"

// Location is a geographic position in decimal degrees.
type Location struct {
	Lat float64 `json:"lat" toml:"lat"`
	Lon float64 `json:"lon" toml:"lon"`
}

// String formats l as "lat~lon", the centre-point syntax of map embeds.
func (l Location) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "~" + strconv.FormatFloat(l.Lon, 'f', -1, 64)
}

// Valid reports whether l is within latitude and longitude range.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180
}

// ParseLocation parses "lat~lon". A comma is accepted as separator too.
func ParseLocation(s string) (Location, error) {
	sep := "~"
	if !strings.Contains(s, sep) {
		sep = ","
	}
	lat, lon, ok := strings.Cut(strings.TrimSpace(s), sep)
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}
	var l Location
	var err error
	if l.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Location{}, fmt.Errorf("%w: latitude %q", ErrInvalidLocation, lat)
	}
	if l.Lon, err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return Location{}, fmt.Errorf("%w: longitude %q", ErrInvalidLocation, lon)
	}
	if !l.Valid() {
		return Location{}, fmt.Errorf("%w: %q out of range", ErrInvalidLocation, s)
	}
	return l, nil
}

// Session is one binding of a subject image.
type Session struct {
	ID       string    `json:"id" toml:"id"`
	ImageID  string    `json:"image_id" toml:"image_id"`
	Location Location  `json:"location" toml:"location"`
	Started  time.Time `json:"started" toml:"started"`
}

// New creates a session for imageID at loc with a fresh id.
func New(imageID string, loc Location) *Session {
	return &Session{
		ID:       uuid.NewString(),
		ImageID:  imageID,
		Location: loc,
		Started:  time.Now(),
	}
}

// Bound reports whether a subject image is set.
func (s *Session) Bound() bool {
	return s != nil && s.ImageID != ""
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by key.
	// Returns nil, nil if the session doesn't exist.
	Get(ctx context.Context, key string) (*Session, error)

	// Set stores a session under key.
	Set(ctx context.Context, key string, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, key string) error
}
