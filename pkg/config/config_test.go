package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/viewgrid/pkg/cache"
	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/groupstore"
	"github.com/matzehuels/viewgrid/pkg/view"
)

const sample = `
view_url = "http://images.example/load/"
aspect_ratio = 1.5
default_group = "masked"

[filters]
invert = true

[cache]
backend = "none"
ttl = "2h"

[views.RGB]
type = "image"
description = "RGB image"

[views.mask]
description = "Segmentation mask"

[views.location]
type = "bingmap"

[[view_groups]]
name = "default"
views = ["RGB", "location"]

[[view_groups]]
name = "masked"
views = ["mask", "RGB"]
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.ViewURL != "http://images.example/load/" || c.AspectRatio != 1.5 {
		t.Errorf("top-level = %q %v", c.ViewURL, c.AspectRatio)
	}
	if c.Width != DefaultWidth || c.Height != DefaultHeight || c.MapURL != DefaultMapURL {
		t.Errorf("defaults not applied: %dx%d %q", c.Width, c.Height, c.MapURL)
	}
	if !c.Filters.Invert || c.Filters.Brightness != 100 || c.Filters.Saturation != 100 {
		t.Errorf("filters = %+v", c.Filters)
	}
	if c.Cache.Backend != BackendNone || c.Cache.TTL.Duration != 2*time.Hour {
		t.Errorf("cache = %+v", c.Cache)
	}
	if got := c.Views["mask"]; got.Name != "mask" || got.Type != view.TypeImage {
		t.Errorf("mask = %+v", got)
	}
	if c.Views["location"].Type != view.TypeBingMap {
		t.Errorf("location type = %q", c.Views["location"].Type)
	}
	if len(c.Groups) != 2 || c.Groups[0].Name != "default" || c.Groups[1].Views[0] != "mask" {
		t.Errorf("groups = %+v", c.Groups)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad view url", func(c *Config) { c.ViewURL = "ftp://x" }},
		{"aspect", func(c *Config) { c.AspectRatio = -1 }},
		{"size", func(c *Config) { c.Width = -5 }},
		{"view type", func(c *Config) { c.Views["RGB"] = view.View{Type: "video"} }},
		{"view name", func(c *Config) { c.Views["a/b"] = view.View{Type: view.TypeImage} }},
		{"group name", func(c *Config) { c.Groups = append(c.Groups, view.Group{}) }},
		{"duplicate group", func(c *Config) { c.Groups = append(c.Groups, c.Groups[0]) }},
		{"default group", func(c *Config) { c.DefaultGroup = "missing" }},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"store backend", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"negative ttl", func(c *Config) { c.Cache.TTL.Duration = -time.Second }},
		{"attempts", func(c *Config) { c.Fetch.Attempts = -1 }},
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if !verrors.Is(err, verrors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":      `view_url = `,
		"unknown key": `colour = "red"`,
		"bad ttl":     "[cache]\nttl = \"soon\"",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); !verrors.Is(err, verrors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	c, err := Load("")
	if err != nil {
		t.Fatalf("missing default file: %v", err)
	}
	if len(c.Groups) != 1 || c.Groups[0].Name != DefaultGroup {
		t.Errorf("groups = %+v", c.Groups)
	}

	if _, err := Load(filepath.Join(dir, "nope.toml")); !verrors.Is(err, verrors.ErrCodeNotFound) {
		t.Errorf("explicit missing path: %v", err)
	}

	path, _ := DefaultPath()
	if path != filepath.Join(dir, "viewgrid", "config.toml") {
		t.Errorf("DefaultPath = %q", path)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := c.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Cache.TTL != c.Cache.TTL || got.DefaultGroup != "masked" || len(got.Views) != 3 {
		t.Errorf("round trip = %+v", got)
	}
	if len(got.Groups) != 2 || got.Groups[1].Name != "masked" {
		t.Errorf("groups = %+v", got.Groups)
	}
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	c := Default()
	c.Cache.Dir = filepath.Join(dir, "cache")
	c.Store.Path = filepath.Join(dir, "groups.toml")
	ctx := context.Background()

	cc, err := c.OpenCache(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(*cache.FileCache); !ok {
		t.Errorf("cache = %T, want *cache.FileCache", cc)
	}
	if nc, _ := c.OpenCache(ctx, true); nc == nil {
		t.Error("no-cache returned nil")
	}

	s, err := c.OpenStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if fs, ok := s.(*groupstore.File); !ok || fs.Path() != c.Store.Path {
		t.Errorf("store = %T", s)
	}

	c.Store.Backend = BackendNone
	if s, _ := c.OpenStore(ctx); s != (groupstore.Null{}) {
		t.Errorf("store = %T, want Null", s)
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan *Config, 4)
	go Watch(ctx, path, log.New(os.Stderr), func(c *Config) { changes <- c })

	// Give the watcher time to register.
	time.Sleep(200 * time.Millisecond)
	updated := sample + "\n[server]\naddr = \":9090\"\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changes:
		if c.Server.Addr != ":9090" {
			t.Errorf("addr = %q", c.Server.Addr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
}

func TestLoadExample(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "examples", "config.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(c.Views) != 5 || len(c.Groups) != 2 {
		t.Fatalf("got %d views, %d groups", len(c.Views), len(c.Groups))
	}
	if c.Views["location"].Type != view.TypeBingMap {
		t.Errorf("location type = %q", c.Views["location"].Type)
	}
	if c.Groups[1].Name != "bands" || c.Fetch.Timeout.Duration != 30*time.Second {
		t.Errorf("groups[1] = %q, fetch timeout = %v", c.Groups[1].Name, c.Fetch.Timeout)
	}
}
