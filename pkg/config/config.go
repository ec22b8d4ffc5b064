// Package config loads the viewgrid TOML configuration: the image host, the
// view registry, the view groups and the cache, store and server backends.
//
// The default location follows the XDG base directory spec
// ($XDG_CONFIG_HOME/viewgrid/config.toml, falling back to
// ~/.config/viewgrid/config.toml). A missing default file yields [Default];
// a missing explicit path is an error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/filter"
	"github.com/matzehuels/viewgrid/pkg/view"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	appName = "viewgrid"

	DefaultViewURL      = "http://localhost:5000/segmentation/load_image/"
	DefaultMapURL       = "https://www.bing.com/maps/embed?"
	DefaultAspectRatio  = 1.0
	DefaultWidth        = 1280
	DefaultHeight       = 800
	DefaultGroup        = "default"
	DefaultServerAddr   = ":8080"
	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisKey     = "viewgrid:groups"
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultMongoDB      = "viewgrid"
	DefaultMongoColl    = "groups"
	DefaultCacheTTL     = 24 * time.Hour
	DefaultFetchTimeout = 30 * time.Second
)

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// =============================================================================
// Schema
// =============================================================================

// Config is the root of config.toml.
type Config struct {
	ViewURL      string  `toml:"view_url"`
	MapURL       string  `toml:"map_url"`
	AspectRatio  float64 `toml:"aspect_ratio"`
	Width        int     `toml:"width"`
	Height       int     `toml:"height"`
	DefaultGroup string  `toml:"default_group"`

	Filters filter.Filters `toml:"filters"`
	Cache   CacheConfig    `toml:"cache"`
	Store   StoreConfig    `toml:"store"`
	Server  ServerConfig   `toml:"server"`
	Fetch   FetchConfig    `toml:"fetch"`

	Views  map[string]view.View `toml:"views"`
	Groups []view.Group         `toml:"view_groups"`
}

// CacheConfig selects the image byte cache.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	TTL       Duration `toml:"ttl"`
	RedisAddr string   `toml:"redis_addr"`
	Prefix    string   `toml:"prefix"` // key prefix, for shared redis instances
}

// StoreConfig selects where view groups are persisted.
type StoreConfig struct {
	Backend         string `toml:"backend"`
	Path            string `toml:"path"`
	RedisAddr       string `toml:"redis_addr"`
	RedisKey        string `toml:"redis_key"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// ServerConfig configures `viewgrid serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// FetchConfig tunes image fetches.
type FetchConfig struct {
	Timeout  Duration `toml:"timeout"`
	Attempts int      `toml:"attempts"`
}

// Duration is a time.Duration written as a Go duration string ("24h").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// =============================================================================
// Construction
// =============================================================================

// Default returns a config with every default applied, one RGB view and a
// "default" group showing it.
func Default() *Config {
	c := &Config{
		Views: map[string]view.View{
			"RGB": {Name: "RGB", Type: view.TypeImage, Description: "RGB image"},
		},
		Groups: []view.Group{{Name: DefaultGroup, Views: []string{"RGB"}}},
	}
	c.SetDefaults()
	return c
}

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.ViewURL == "" {
		c.ViewURL = DefaultViewURL
	}
	if c.MapURL == "" {
		c.MapURL = DefaultMapURL
	}
	if c.AspectRatio == 0 {
		c.AspectRatio = DefaultAspectRatio
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.DefaultGroup == "" {
		c.DefaultGroup = DefaultGroup
	}
	if c.Filters == (filter.Filters{}) {
		c.Filters = filter.Default()
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = DefaultCacheTTL
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = DefaultRedisAddr
	}

	if c.Store.Backend == "" {
		c.Store.Backend = BackendFile
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = DefaultRedisAddr
	}
	if c.Store.RedisKey == "" {
		c.Store.RedisKey = DefaultRedisKey
	}
	if c.Store.MongoURI == "" {
		c.Store.MongoURI = DefaultMongoURI
	}
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = DefaultMongoDB
	}
	if c.Store.MongoCollection == "" {
		c.Store.MongoCollection = DefaultMongoColl
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Fetch.Timeout.Duration == 0 {
		c.Fetch.Timeout.Duration = DefaultFetchTimeout
	}
	if c.Fetch.Attempts == 0 {
		c.Fetch.Attempts = 3
	}

	for name, v := range c.Views {
		v.Name = name
		if v.Type == "" {
			v.Type = view.TypeImage
		}
		c.Views[name] = v
	}
}

// Validate checks the config. Every error has code INVALID_CONFIG.
func (c *Config) Validate() error {
	if err := verrors.ValidateURL(c.ViewURL); err != nil {
		return invalid(err, "view_url")
	}
	if err := verrors.ValidateURL(c.MapURL); err != nil {
		return invalid(err, "map_url")
	}
	if c.AspectRatio <= 0 {
		return verrors.New(verrors.ErrCodeInvalidConfig, "aspect_ratio must be positive, got %v", c.AspectRatio)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return verrors.New(verrors.ErrCodeInvalidConfig, "width and height must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Filters.Brightness < 0 || c.Filters.Saturation < 0 {
		return verrors.New(verrors.ErrCodeInvalidConfig, "filters: brightness and saturation cannot be negative")
	}

	for name, v := range c.Views {
		if err := verrors.ValidateViewName(name); err != nil {
			return invalid(err, "views")
		}
		switch v.Type {
		case view.TypeImage, view.TypeBingMap:
		default:
			return verrors.New(verrors.ErrCodeInvalidConfig, "views.%s: unknown type %q (must be image or bingmap)", name, v.Type)
		}
	}

	seen := make(map[string]bool, len(c.Groups))
	for i, g := range c.Groups {
		if g.Name == "" {
			return verrors.New(verrors.ErrCodeInvalidConfig, "view_groups[%d]: name is required", i)
		}
		if seen[g.Name] {
			return verrors.New(verrors.ErrCodeInvalidConfig, "view_groups: duplicate group %q", g.Name)
		}
		seen[g.Name] = true
	}
	if len(c.Groups) > 0 && !seen[c.DefaultGroup] {
		return verrors.New(verrors.ErrCodeInvalidConfig, "default_group %q is not a view group", c.DefaultGroup)
	}

	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return verrors.New(verrors.ErrCodeInvalidConfig, "cache.backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return verrors.New(verrors.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}
	switch c.Store.Backend {
	case BackendFile, BackendRedis, BackendMongo, BackendNone:
	default:
		return verrors.New(verrors.ErrCodeInvalidConfig, "store.backend %q (must be file, redis, mongo or none)", c.Store.Backend)
	}
	if c.Fetch.Attempts < 1 {
		return verrors.New(verrors.ErrCodeInvalidConfig, "fetch.attempts must be at least 1")
	}
	return nil
}

func invalid(err error, field string) error {
	return verrors.Wrap(verrors.ErrCodeInvalidConfig, err, "%s", field)
}

// =============================================================================
// Files
// =============================================================================

// Dir returns the viewgrid config directory.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads, defaults and validates the config at path. An empty path
// means DefaultPath, which may be missing.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeNotFound, err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates TOML data.
func Parse(data []byte) (*Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, verrors.New(verrors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	// A partial [filters] table keeps the unset percentages at 100.
	if md.IsDefined("filters") {
		if !md.IsDefined("filters", "brightness") {
			c.Filters.Brightness = 100
		}
		if !md.IsDefined("filters", "saturation") {
			c.Filters.Saturation = 100
		}
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Write encodes c to path, creating parent directories.
func (c *Config) Write(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// CacheDir returns the image cache directory: cache.dir if set, otherwise
// $XDG_CACHE_HOME/viewgrid or ~/.cache/viewgrid.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// StorePath returns the file group store path: store.path if set,
// otherwise groups.toml next to the default config.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "groups.toml"), nil
}
