// Package cli implements the viewgrid command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/viewgrid/pkg/buildinfo"
	"github.com/matzehuels/viewgrid/pkg/cache"
	"github.com/matzehuels/viewgrid/pkg/config"
	"github.com/matzehuels/viewgrid/pkg/groupstore"
	"github.com/matzehuels/viewgrid/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "viewgrid"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Viewgrid composes one subject image in many views",
		Long: `Viewgrid shows a single subject image in a grid of views: raster
renderings fetched from an image host and a map centred on the subject's
location. Views are organised in named groups; each view carries a
contrast window shared by every tile showing it.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath, "config file (default $XDG_CONFIG_HOME/viewgrid/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", c.noCache, "disable the image cache")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.groupsCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Backends
// =============================================================================

// loadConfig reads the config selected by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// configFile returns the path --config points at, or the default path.
func (c *CLI) configFile() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	return config.DefaultPath()
}

// backends bundles what a command needs to build a manager.
type backends struct {
	cfg   *config.Config
	cache cache.Cache
	store groupstore.Store
}

// Close releases the cache and the group store.
func (b *backends) Close() error {
	err := b.store.Close()
	if cerr := b.cache.Close(); err == nil {
		err = cerr
	}
	return err
}

// openBackends loads the config and connects its cache and group store.
func (c *CLI) openBackends(ctx context.Context) (*backends, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	ch, err := cfg.OpenCache(ctx, c.noCache)
	if err != nil {
		return nil, err
	}
	store, err := cfg.OpenStore(ctx)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return &backends{cfg: cfg, cache: ch, store: store}, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(b *backends) *pipeline.Runner {
	fetcher := pipeline.NewFetcher(b.cfg, b.cache, c.Logger)
	return pipeline.NewRunner(b.cfg, fetcher, b.store, c.Logger)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured image cache directory.
func (c *CLI) cacheDir() (string, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.CacheDir()
}

// =============================================================================
// Flag Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatPNG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, pipeline.NormalizeFormat(f))
		}
	}
	return out
}
