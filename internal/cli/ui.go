package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/viewgrid/pkg/contrast"
	"github.com/matzehuels/viewgrid/pkg/session"
	"github.com/matzehuels/viewgrid/pkg/viewer"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success, fully drawn
	colorYellow = lipgloss.Color("220") // warnings, partially drawn
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // links, commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // muted
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleComplete    = lipgloss.NewStyle().Foreground(colorGreen)
	stylePartial     = lipgloss.NewStyle().Foreground(colorYellow)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status lines
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written or removed path with its size.
func printFile(path string, size int) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path) +
		" " + StyleDim.Render(humanize.Bytes(uint64(size))))
}

func printKeyValue(key, value string) {
	fmt.Println(styleLabel.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Grid output
// =============================================================================

// subjectLabel renders "id @ lat~lon", omitting an unset location.
func subjectLabel(s *session.Session) string {
	if !s.Bound() {
		return "no image"
	}
	if s.Location == (session.Location{}) {
		return s.ImageID
	}
	return s.ImageID + " @ " + s.Location.String()
}

// printStats prints composite statistics on one line. drawn counts the
// image views whose pixels arrived.
func printStats(views, drawn, images, width, height int, fetch time.Duration) {
	parts := []string{StyleDim.Render(fmt.Sprintf("%d views", views))}
	if width > 0 && height > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%dx%d", width, height)))
	}
	if fetch > 0 {
		parts = append(parts, StyleDim.Render("fetched in "+fetch.Round(time.Millisecond).String()))
	}
	if images > 0 {
		status := fmt.Sprintf("%d/%d drawn", drawn, images)
		if drawn == images {
			parts = append(parts, styleComplete.Render(status))
		} else {
			parts = append(parts, stylePartial.Render(status))
		}
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// printWindows lists the contrast windows that differ from the full range.
func printWindows(windows map[string]viewer.WindowState) {
	names := make([]string, 0, len(windows))
	for name, w := range windows {
		if w.Min != contrast.MinValue || w.Max != contrast.MaxValue {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		w := windows[name]
		printKeyValue("  "+name, fmt.Sprintf("%d - %d", w.Min, w.Max))
	}
}
