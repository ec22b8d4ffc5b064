package viewport

import (
	"image"

	"github.com/matzehuels/viewgrid/pkg/contrast"
)

// Plot dimensions of the widget histogram.
const (
	PlotWidth  = 256
	PlotHeight = 64
)

// ContrastWidget adjusts the contrast window of an image view.
type ContrastWidget struct {
	Slider    *contrast.Slider
	Minimised bool
	Visible   bool

	port *Port
	host Host
	plot *image.NRGBA
}

func newContrastWidget(p *Port, host Host) *ContrastWidget {
	w := &ContrastWidget{port: p, host: host}
	w.Slider = contrast.NewSlider(w.changed)
	win := host.ContrastWindow(p.view.Name)
	w.Slider.Sync(win.Min, win.Max)
	w.Visible = host.ShowContrastWindows()
	w.refresh()
	return w
}

func (w *ContrastWidget) changed(min, max int) {
	w.host.SetContrastWindow(w.port.view.Name, min, max)
	w.refresh()
}

// PointerDown forwards a press on the slider track.
func (w *ContrastWidget) PointerDown(percent float64, target contrast.Handle) contrast.Handle {
	return w.Slider.PointerDown(percent, target)
}

// Input moves handle h to value.
func (w *ContrastWidget) Input(h contrast.Handle, value int) {
	w.Slider.Input(h, value)
}

// ToggleMinimise collapses or expands the widget.
func (w *ContrastWidget) ToggleMinimise() {
	w.Minimised = !w.Minimised
}

// Plot returns the last drawn histogram, or nil before the first render.
func (w *ContrastWidget) Plot() *image.NRGBA { return w.plot }

// refresh redraws the plot; without a histogram the old plot is kept.
func (w *ContrastWidget) refresh() {
	win := w.host.ContrastWindow(w.port.view.Name)
	if win.Histogram == nil {
		return
	}
	w.plot = contrast.Plot(win, PlotWidth, PlotHeight)
}
