package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/viewgrid/pkg/config"
	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/filter"
	"github.com/matzehuels/viewgrid/pkg/layer"
	"github.com/matzehuels/viewgrid/pkg/observability"
	"github.com/matzehuels/viewgrid/pkg/pipeline"
	"github.com/matzehuels/viewgrid/pkg/session"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output       string   // output file path (or base path for multiple outputs)
	formats      string   // comma-separated output formats
	group        string   // group to render, "" for the configured default
	location     string   // subject location as "lat~lon"
	windows      []string // contrast windows as "view=min:max"
	showWindows  bool     // draw contrast widgets
	autoContrast bool     // derive windows from histograms
	width        int      // viewport width override
	height       int      // viewport height override
	quality      int      // JPEG quality
	invert       bool     // invert filter
	brightness   float64  // brightness percent
	saturation   float64  // saturation percent
}

// renderCommand creates the render command for composing a group of views.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{
		quality:    pipeline.DefaultJPEGQuality,
		brightness: 100,
		saturation: 100,
	}

	cmd := &cobra.Command{
		Use:   "render [image-id|last]",
		Short: "Render a group of views of one image",
		Long: `Render a group of views of one subject image into a single composite.

Every image view of the group is fetched from the configured image host and
drawn into its tile with its contrast window applied. Map views are listed in
the JSON state only. Pass "last" to re-render the previous image and location.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormats(parseFormats(opts.formats)); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): png (default), jpeg, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "view group to render")
	cmd.Flags().StringVarP(&opts.location, "location", "l", "", "subject location as lat~lon")
	cmd.Flags().StringArrayVarP(&opts.windows, "window", "w", nil, "contrast window as view=min:max (repeatable)")
	cmd.Flags().BoolVar(&opts.showWindows, "show-windows", false, "draw contrast window widgets")
	cmd.Flags().BoolVar(&opts.autoContrast, "auto-contrast", false, "derive each window from its histogram")
	cmd.Flags().IntVar(&opts.width, "width", 0, "viewport width (default from config)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "viewport height (default from config)")
	cmd.Flags().IntVar(&opts.quality, "quality", opts.quality, "JPEG quality")
	cmd.Flags().BoolVar(&opts.invert, "invert", false, "invert colours")
	cmd.Flags().Float64Var(&opts.brightness, "brightness", opts.brightness, "brightness percent")
	cmd.Flags().Float64Var(&opts.saturation, "saturation", opts.saturation, "saturation percent")
	_ = cmd.RegisterFlagCompletionFunc("group", c.completeGroupFlag)

	return cmd
}

// runRender resolves the session, runs the pipeline and writes artifacts.
func (c *CLI) runRender(ctx context.Context, imageID string, cmd *cobra.Command, ro renderOpts) error {
	sessions, err := newSessionStore()
	if err != nil {
		return err
	}

	sess, err := resolveSession(ctx, sessions, imageID, ro.location)
	if err != nil {
		return err
	}

	windows, err := parseWindows(ro.windows)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		ImageID:             sess.ImageID,
		Location:            sess.Location,
		Group:               ro.group,
		Width:               ro.width,
		Height:              ro.height,
		ContrastWindows:     windows,
		ShowContrastWindows: ro.showWindows,
		AutoContrast:        ro.autoContrast,
		Formats:             parseFormats(ro.formats),
		Quality:             ro.quality,
		Logger:              c.Logger,
	}
	if filtersChanged(cmd) {
		f := filter.Filters{Invert: ro.invert, Brightness: ro.brightness, Saturation: ro.saturation}
		opts.Filters = &f
	}

	b, err := c.openBackends(ctx)
	if err != nil {
		return err
	}
	defer b.Close()
	runner := c.newRunner(b)

	spinner := newSpinner(ctx, os.Stderr, "Rendering "+sess.ImageID)
	observability.SetFetchHooks(spinner.Chain(observability.NewLogHooks(c.Logger)))
	defer observability.Reset()
	spinner.Start()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()
	prog.done("rendered", "group", result.State.Group, "views", result.Stats.Views)

	if err := sessions.Set(ctx, session.LastID, sess); err != nil {
		c.Logger.Warn("saving session failed", "err", err)
	}

	drawn, images := countDrawn(result)
	printSuccess("Rendered %s in group %s", StyleHighlight.Render(subjectLabel(sess)), StyleHighlight.Render(result.State.Group))
	printStats(result.Stats.Views, drawn, images, result.Stats.Width, result.Stats.Height, result.Stats.FetchTime)
	printWindows(result.State.Windows)

	return writeArtifacts(result.Artifacts, opts.Formats, ro.output, defaultBase(sess.ImageID, result.State.Group))
}

// newSessionStore opens the session store next to the config.
func newSessionStore() (*session.FileStore, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("get config dir: %w", err)
	}
	return session.NewFileStore(filepath.Join(dir, "sessions.toml"))
}

// resolveSession binds imageID, or the saved session for "last". A
// non-empty location overrides the saved one.
func resolveSession(ctx context.Context, store session.Store, imageID, location string) (*session.Session, error) {
	var loc session.Location
	if location != "" {
		l, err := session.ParseLocation(location)
		if err != nil {
			return nil, verrors.Wrap(verrors.ErrCodeInvalidInput, err, "invalid --location")
		}
		loc = l
	}

	if imageID != session.LastID {
		if err := verrors.ValidateImageID(imageID); err != nil {
			return nil, err
		}
		return session.New(imageID, loc), nil
	}

	last, err := store.Get(ctx, session.LastID)
	if err != nil {
		return nil, fmt.Errorf("load last session: %w", err)
	}
	if !last.Bound() {
		return nil, verrors.New(verrors.ErrCodeNotFound, "no previous render to resume")
	}
	if location != "" {
		last.Location = loc
	}
	return last, nil
}

// parseWindows parses "view=min:max" flags.
func parseWindows(specs []string) (map[string]pipeline.Window, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(map[string]pipeline.Window, len(specs))
	for _, s := range specs {
		name, bounds, ok := strings.Cut(s, "=")
		lo, hi, ok2 := strings.Cut(bounds, ":")
		if !ok || !ok2 || name == "" {
			return nil, verrors.New(verrors.ErrCodeInvalidInput, "invalid --window %q (want view=min:max)", s)
		}
		min, err1 := strconv.Atoi(lo)
		max, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			return nil, verrors.New(verrors.ErrCodeInvalidInput, "invalid --window %q: bounds must be integers", s)
		}
		if min < 0 || max > 255 || min > max {
			return nil, verrors.New(verrors.ErrCodeInvalidInput, "invalid --window %q: need 0 <= min <= max <= 255", s)
		}
		out[name] = pipeline.Window{Min: min, Max: max}
	}
	return out, nil
}

// filtersChanged reports whether any filter flag was set explicitly.
func filtersChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"invert", "brightness", "saturation"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// countDrawn counts the image layers of result whose pixels arrived.
func countDrawn(result *pipeline.Result) (drawn, images int) {
	for _, p := range result.State.Ports {
		for _, l := range p.Layers {
			if l.Kind != layer.KindRGB {
				continue
			}
			images++
			if l.Drawn {
				drawn++
			}
		}
	}
	return drawn, images
}

// defaultBase names outputs after the image and group.
func defaultBase(imageID, group string) string {
	return sanitize(imageID) + "_" + sanitize(group)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, s)
}

// extension returns the file extension for format.
func extension(format string) string {
	if format == pipeline.FormatJPEG {
		return ".jpg"
	}
	return "." + format
}

// outputPath returns where format is written. A single format honours
// output verbatim; several formats share output as base path.
func outputPath(output, base, format string, multiple bool) string {
	switch {
	case output == "":
		return base + extension(format)
	case multiple:
		return strings.TrimSuffix(output, filepath.Ext(output)) + extension(format)
	default:
		return output
	}
}

// writeArtifacts writes every artifact in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, base string) error {
	multiple := len(formats) > 1
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := outputPath(output, base, format, multiple)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path, len(data))
	}
	return nil
}
