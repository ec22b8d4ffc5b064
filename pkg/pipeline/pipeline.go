// Package pipeline renders a view group headlessly: it binds an image,
// builds the grid, waits for every view to load and encodes the composite.
//
// The CLI `render` command and the HTTP API both go through this package so
// that a composite looks the same regardless of the entry point.
//
// # Usage
//
//	runner := pipeline.NewRunner(cfg, fetcher, store, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ImageID: "42",
//	    Group:   "masked",
//	    Formats: []string{"png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/filter"
	"github.com/matzehuels/viewgrid/pkg/session"
	"github.com/matzehuels/viewgrid/pkg/viewer"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultTimeout bounds a whole pipeline run, fetches included.
	DefaultTimeout = 60 * time.Second

	// DefaultJPEGQuality is used when Quality is unset.
	DefaultJPEGQuality = 90

	// Auto contrast quantiles.
	DefaultAutoLow  = 0.01
	DefaultAutoHigh = 0.99
)

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatJPEG: true,
	FormatJSON: true,
}

// =============================================================================
// Options
// =============================================================================

// Window is a requested contrast window.
type Window struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Options configures one pipeline run.
type Options struct {
	ImageID  string           `json:"image_id"`
	Location session.Location `json:"location"`
	Group    string           `json:"group,omitempty"`

	// Width and Height override the configured viewport size.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	Filters             *filter.Filters   `json:"filters,omitempty"`
	ContrastWindows     map[string]Window `json:"contrast_windows,omitempty"`
	ShowContrastWindows bool              `json:"show_contrast_windows,omitempty"`
	// AutoContrast derives every image view's window from its histogram.
	AutoContrast bool `json:"auto_contrast,omitempty"`

	Formats []string      `json:"formats,omitempty"`
	Quality int           `json:"quality,omitempty"`
	Timeout time.Duration `json:"-"`

	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Artifacts contains encoded outputs keyed by format.
	Artifacts map[string][]byte

	// State is the grid state after rendering.
	State viewer.State

	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Views      int
	Width      int
	Height     int
	FetchTime  time.Duration
	RenderTime time.Duration
	EncodeTime time.Duration
}

// =============================================================================
// Validation
// =============================================================================

// NormalizeFormat maps aliases to their canonical format.
func NormalizeFormat(format string) string {
	if format == "jpg" {
		return FormatJPEG
	}
	return format
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[NormalizeFormat(format)] {
		return fmt.Errorf("invalid format: %q (must be one of: png, jpeg, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if err := verrors.ValidateImageID(o.ImageID); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("width and height cannot be negative")
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	for i, f := range o.Formats {
		o.Formats[i] = NormalizeFormat(f)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultJPEGQuality
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}
