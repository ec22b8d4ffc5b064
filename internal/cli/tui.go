package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/viewgrid/pkg/contrast"
	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/layer"
	"github.com/matzehuels/viewgrid/pkg/transform"
	"github.com/matzehuels/viewgrid/pkg/viewer"
	"github.com/matzehuels/viewgrid/pkg/viewport"
)

// Grid styles
var (
	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1).
			Width(22)
	cellSelectedStyle = cellStyle.BorderForeground(colorCyan)
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	refreshInterval = 250 * time.Millisecond
	panStep         = 10
	zoomStep        = 1.25
	windowStep      = 5
)

// =============================================================================
// GridModel - Interactive view grid
// =============================================================================

// stateMsg carries a fresh snapshot of the grid.
type stateMsg struct {
	state viewer.State
	err   error
}

// tickMsg triggers a periodic snapshot while views load.
type tickMsg time.Time

// notifyMsg carries a manager notification.
type notifyMsg string

// GridModel is the bubbletea model driving a live grid. Every manager
// access goes through the loop.
type GridModel struct {
	ctx     context.Context
	manager *viewer.Manager
	notes   <-chan string

	State    viewer.State
	Selected int
	Message  string
	Err      error
}

// NewGridModel creates a model over m. notes delivers notifications posted
// by the manager.
func NewGridModel(ctx context.Context, m *viewer.Manager, notes <-chan string) GridModel {
	return GridModel{ctx: ctx, manager: m, notes: notes}
}

func (m GridModel) Init() tea.Cmd {
	return tea.Batch(m.action(nil), tick(), m.waitNote())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m GridModel) waitNote() tea.Cmd {
	if m.notes == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case n := <-m.notes:
			return notifyMsg(n)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// action runs fn on the loop and snapshots the grid afterwards.
func (m GridModel) action(fn func(vm *viewer.Manager) error) tea.Cmd {
	return func() tea.Msg {
		var msg stateMsg
		err := m.manager.Loop().Do(m.ctx, func() error {
			var err error
			if fn != nil {
				err = fn(m.manager)
			}
			msg.state = m.manager.Snapshot()
			return err
		})
		msg.err = err
		return msg
	}
}

// onPort runs fn against the selected port.
func (m GridModel) onPort(fn func(vm *viewer.Manager, p *viewport.Port) error) tea.Cmd {
	id := m.Selected
	return m.action(func(vm *viewer.Manager) error {
		p, err := vm.Port(id)
		if err != nil {
			return err
		}
		return fn(vm, p)
	})
}

func (m GridModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		if errors.Is(msg.err, viewer.ErrLoopStopped) {
			return m, tea.Quit
		}
		m.State = msg.state
		if msg.err != nil {
			m.Err = msg.err
		}
		if m.Selected >= len(m.State.Ports) {
			m.Selected = max(len(m.State.Ports)-1, 0)
		}
		return m, nil
	case tickMsg:
		return m, tea.Batch(m.action(nil), tick())
	case notifyMsg:
		m.Message = string(msg)
		return m, m.waitNote()
	case tea.KeyMsg:
		m.Err = nil
		return m, m.handleKey(msg.String())
	}
	return m, nil
}

func (m *GridModel) handleKey(key string) tea.Cmd {
	n := len(m.State.Ports)
	switch key {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "tab", "right", "l":
		if n > 0 {
			m.Selected = (m.Selected + 1) % n
		}
	case "shift+tab", "left", "h":
		if n > 0 {
			m.Selected = (m.Selected + n - 1) % n
		}
	case "n":
		return m.action(func(vm *viewer.Manager) error { return vm.ShowNextGroup() })
	case "c":
		return m.action(func(vm *viewer.Manager) error { vm.ToggleControls(); return nil })
	case "w":
		return m.action(func(vm *viewer.Manager) error { vm.ToggleContrastWindows(); return nil })
	case "a":
		return m.onPort(func(_ *viewer.Manager, p *viewport.Port) error { return p.ClickAdd() })
	case "d":
		return m.onPort(func(_ *viewer.Manager, p *viewport.Port) error { return p.ClickRemove() })
	case "v":
		return m.onPort(func(vm *viewer.Manager, p *viewport.Port) error {
			return p.Select(nextName(vm.ViewNames(), p.View().Name))
		})
	case "m":
		return m.onPort(func(_ *viewer.Manager, p *viewport.Port) error {
			w := p.Widget()
			if w == nil {
				return viewport.ErrNoWidget
			}
			w.ToggleMinimise()
			return nil
		})
	case "[", "]", "{", "}":
		return m.onPort(func(_ *viewer.Manager, p *viewport.Port) error {
			return stepWindow(p, key)
		})
	case "up", "k":
		return m.action(func(vm *viewer.Manager) error { vm.Pan(0, -panStep); return nil })
	case "down", "j":
		return m.action(func(vm *viewer.Manager) error { vm.Pan(0, panStep); return nil })
	case "H":
		return m.action(func(vm *viewer.Manager) error { vm.Pan(-panStep, 0); return nil })
	case "L":
		return m.action(func(vm *viewer.Manager) error { vm.Pan(panStep, 0); return nil })
	case "+", "=":
		return m.action(func(vm *viewer.Manager) error { vm.Zoom(zoomStep, 0, 0); return nil })
	case "-":
		return m.action(func(vm *viewer.Manager) error { vm.Zoom(1/zoomStep, 0, 0); return nil })
	case "0":
		return m.action(func(vm *viewer.Manager) error {
			vm.SetTransform(transform.Identity())
			return nil
		})
	}
	return nil
}

// stepWindow moves one handle of the selected widget: [ and ] move the
// minimum, { and } the maximum.
func stepWindow(p *viewport.Port, key string) error {
	w := p.Widget()
	if w == nil {
		return viewport.ErrNoWidget
	}
	lo, hi := w.Slider.Values()
	switch key {
	case "[":
		w.Input(contrast.HandleMin, max(lo-windowStep, contrast.MinValue))
	case "]":
		w.Input(contrast.HandleMin, min(lo+windowStep, hi))
	case "{":
		w.Input(contrast.HandleMax, max(hi-windowStep, lo))
	case "}":
		w.Input(contrast.HandleMax, min(hi+windowStep, contrast.MaxValue))
	}
	return nil
}

// nextName returns the name after cur in sorted names, wrapping.
func nextName(names []string, cur string) string {
	sort.Strings(names)
	for i, n := range names {
		if n == cur {
			return names[(i+1)%len(names)]
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return cur
}

func (m GridModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("viewgrid  " + subjectLabel(m.State.Session)))
	b.WriteString("\n")
	b.WriteString(m.groupLine())
	b.WriteString("\n\n")

	if len(m.State.Ports) == 0 {
		b.WriteString(listDimStyle.Render("  no views in this group"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.grid())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.Err != nil:
		b.WriteString(StyleWarning.Render(verrors.UserMessage(m.Err)))
	case m.Message != "":
		b.WriteString(StyleHighlight.Render(m.Message))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ select  n next group  a add  d remove  v view  c controls  w windows"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("[ ] min  { } max  m minimise  ↑/↓ H/L pan  +/- zoom  0 reset  q quit"))

	return b.String()
}

// groupLine lists the groups with the current one highlighted.
func (m GridModel) groupLine() string {
	parts := make([]string, 0, len(m.State.Groups))
	for _, g := range m.State.Groups {
		label := fmt.Sprintf("%s (%d)", g.Name, len(g.Views))
		if g.Name == m.State.Group {
			parts = append(parts, listSelectedStyle.Render(label))
		} else {
			parts = append(parts, listNormalStyle.Render(label))
		}
	}
	return strings.Join(parts, listDimStyle.Render(" · "))
}

// grid lays the cells out in the rows of the tile layout.
func (m GridModel) grid() string {
	var rows []string
	var row []string
	y := -1
	for i, p := range m.State.Ports {
		if p.Tile.Y != y && len(row) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
		y = p.Tile.Y
		row = append(row, m.cell(i, p))
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m GridModel) cell(i int, p viewer.PortState) string {
	lines := []string{listNormalStyle.Bold(true).Render(p.View), listDimStyle.Render(layerStatus(p))}
	if w := p.Widget; w != nil && w.Visible {
		readout := w.Readout
		if w.Minimised {
			readout = "▸ " + readout
		}
		lines = append(lines, StyleNumber.Render(readout))
	}
	if p.Controls {
		lines = append(lines, listDimStyle.Render("+ add  - remove"))
	}
	style := cellStyle
	if i == m.Selected {
		style = cellSelectedStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

// layerStatus summarises the layer stack of a tile.
func layerStatus(p viewer.PortState) string {
	for _, l := range p.Layers {
		switch l.Kind {
		case layer.KindRGB:
			switch {
			case l.Drawn:
				return iconSuccess + " drawn"
			case l.Waiting:
				return "loading..."
			default:
				return iconError + " unavailable"
			}
		case layer.KindBingMap:
			return iconArrow + " map"
		}
	}
	return "empty"
}
