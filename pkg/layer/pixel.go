package layer

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/viewgrid/pkg/contrast"
	"github.com/matzehuels/viewgrid/pkg/layout"
	"github.com/matzehuels/viewgrid/pkg/observability"
	"github.com/matzehuels/viewgrid/pkg/source"
	"github.com/matzehuels/viewgrid/pkg/transform"
	"github.com/matzehuels/viewgrid/pkg/view"
)

// Pixel draws the view image onto a canvas through a pan/zoom transform.
//
// The canvas resolution is fixed to the tile size at construction; later size
// changes only change the display size, and composites scale the canvas to
// it. Sampling is nearest-neighbour throughout so that pixel boundaries in
// masks stay sharp.
//
// Pixel must only be used from the goroutine that runs the env Scheduler.
type Pixel struct {
	*Base
	env   *Env
	owner Owner

	canvas    *image.NRGBA
	display   layout.Size
	transform transform.Affine
	css       string
	drawn     bool

	ctx     context.Context
	cancel  context.CancelFunc
	waiting *source.Future
	closed  bool
}

// NewPixelLayer is the [Constructor] of [Pixel].
func NewPixelLayer(env *Env, owner Owner, v view.View, size layout.Size) Layer {
	return NewPixel(env, owner, v, size)
}

// NewPixel creates a pixel layer with a canvas of size.
func NewPixel(env *Env, owner Owner, v view.View, size layout.Size) *Pixel {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pixel{
		Base:      NewBase(v),
		env:       env,
		owner:     owner,
		canvas:    image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height)),
		display:   size,
		transform: transform.Identity(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (p *Pixel) Kind() Kind { return KindRGB }

// Canvas returns the canvas before filters.
func (p *Pixel) Canvas() *image.NRGBA { return p.canvas }

// Transform returns the canvas transform.
func (p *Pixel) Transform() transform.Affine { return p.transform }

// SetTransform replaces the canvas transform. It takes effect on the next
// Render.
func (p *Pixel) SetTransform(t transform.Affine) { p.transform = t }

// CSS returns the filter string recorded at the last successful render.
func (p *Pixel) CSS() string { return p.css }

// Drawn reports whether the canvas holds the view image.
func (p *Pixel) Drawn() bool { return p.drawn }

// Waiting reports whether a render is pending on an image load.
func (p *Pixel) Waiting() bool { return p.waiting != nil }

// DisplaySize returns the size the canvas is shown at.
func (p *Pixel) DisplaySize() layout.Size { return p.display }

func (p *Pixel) SizeChanged(width, height int) {
	p.display = layout.Size{Width: width, Height: height}
}

// Render draws the view image if it is loaded. Otherwise the load is
// started and Render runs again through the scheduler once it finishes.
func (p *Pixel) Render() {
	if p.closed {
		return
	}
	start := time.Now()
	name := p.view.Name

	f := p.env.Sources.Load(name)
	if !f.Ready() {
		p.await(f)
		return
	}

	clear(p.canvas.Pix)
	p.drawn = false

	img, err := f.Result()
	if err != nil {
		if !errors.Is(err, source.ErrNoImage) && !errors.Is(err, context.Canceled) {
			p.env.logger().Warn("view image unavailable", "view", name, "err", err)
		}
		return
	}

	xdraw.NearestNeighbor.Transform(p.canvas, p.transform.Aff3(), img, img.Bounds(), xdraw.Over, nil)
	p.drawn = true

	w := p.env.Windows.Get(name)
	if w.Histogram == nil {
		p.env.Windows.SetHistogram(name, contrast.Compute(img))
	}
	if p.env.showWindows() && !w.IsFull() {
		contrast.Apply(p.canvas, w.Min, w.Max)
	}

	p.css = p.env.filters().CSS()

	if p.owner != nil {
		p.owner.HistogramChanged(name)
	}
	observability.Grid().OnRender(p.ctx, name, string(KindRGB), time.Since(start))
}

// await re-renders once f completes, unless the layer is closed first.
func (p *Pixel) await(f *source.Future) {
	if p.waiting == f || p.env.Scheduler == nil {
		return
	}
	p.waiting = f
	ctx := p.ctx
	go func() {
		select {
		case <-f.Done():
		case <-ctx.Done():
			return
		}
		p.env.Scheduler.Post(func() {
			if p.waiting == f {
				p.waiting = nil
			}
			if !p.closed {
				p.Render()
			}
		})
	}()
}

// Draw paints the filtered canvas onto dst, scaled to the display size.
func (p *Pixel) Draw(dst draw.Image, at image.Point) {
	src := p.env.filters().Apply(p.canvas)
	r := image.Rectangle{Min: at, Max: at.Add(image.Pt(p.display.Width, p.display.Height))}
	if src.Bounds().Size() == r.Size() {
		draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
		return
	}
	xdraw.NearestNeighbor.Scale(dst, r, src, src.Bounds(), xdraw.Over, nil)
}

// Close cancels any pending wait.
func (p *Pixel) Close() {
	p.closed = true
	p.cancel()
}

var (
	_ Layer  = (*Pixel)(nil)
	_ Drawer = (*Pixel)(nil)
)
