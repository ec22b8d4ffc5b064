// Package viewer orchestrates the grid: it owns the view registry, the view
// groups, the contrast windows and global filters, and rebuilds the view
// ports whenever the shown group changes.
//
// A [Manager] is not safe for concurrent use. Every call must happen on the
// goroutine running its [Loop]; other goroutines submit work with
// [Loop.Do]. Image loads complete asynchronously and re-render their layers
// through the same loop.
package viewer

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/viewgrid/pkg/contrast"
	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/filter"
	"github.com/matzehuels/viewgrid/pkg/groupstore"
	"github.com/matzehuels/viewgrid/pkg/layer"
	"github.com/matzehuels/viewgrid/pkg/layout"
	"github.com/matzehuels/viewgrid/pkg/observability"
	"github.com/matzehuels/viewgrid/pkg/session"
	"github.com/matzehuels/viewgrid/pkg/source"
	"github.com/matzehuels/viewgrid/pkg/transform"
	"github.com/matzehuels/viewgrid/pkg/view"
	"github.com/matzehuels/viewgrid/pkg/viewport"
)

// DefaultGroup is the group shown first when none is configured.
const DefaultGroup = "default"

// Options configures a Manager.
type Options struct {
	Views        map[string]view.View
	Groups       []view.Group
	DefaultGroup string

	// AspectRatio is the width/height ratio of the subject image.
	AspectRatio float64
	// Width and Height are the viewport (window) size.
	Width, Height int

	Filters filter.Filters
	MapURL  string

	Fetcher  source.Fetcher
	Store    groupstore.Store
	Notifier Notifier
	Logger   *log.Logger
}

// Manager is the grid orchestrator.
type Manager struct {
	loop     *Loop
	logger   *log.Logger
	store    groupstore.Store
	notifier Notifier

	views   *view.Registry
	groups  *view.Groups
	current string

	aspect   float64
	viewport layout.Size
	tile     layout.Size

	session *session.Session
	sources *source.Sources
	windows *contrast.Store
	filters filter.Filters

	standard *layer.Registry
	env      *layer.Env
	ports    []*viewport.Port
	count    int

	showControls bool
	showWindows  bool
}

// New creates a manager that schedules asynchronous work on loop.
func New(loop *Loop, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	store := opts.Store
	if store == nil {
		store = groupstore.Null{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = source.NewMemoryFetcher()
	}
	aspect := opts.AspectRatio
	if aspect <= 0 {
		aspect = 1
	}
	filters := opts.Filters
	if filters == (filter.Filters{}) {
		filters = filter.Default()
	}

	m := &Manager{
		loop:     loop,
		logger:   logger,
		store:    store,
		notifier: notifier,
		views:    view.NewRegistry(opts.Views),
		groups:   view.NewGroups(opts.Groups...),
		aspect:   aspect,
		viewport: layout.Size{Width: opts.Width, Height: opts.Height},
		sources:  source.NewSources(fetcher, logger),
		windows:  contrast.NewStore(),
		filters:  filters,
		standard: layer.Standard(),
	}
	m.current = opts.DefaultGroup
	if m.current == "" {
		m.current = DefaultGroup
	}
	if !m.groups.Has(m.current) && m.groups.Len() > 0 {
		m.current = m.groups.Names()[0]
	}
	m.env = &layer.Env{
		Sources:     m.sources,
		Windows:     m.windows,
		ShowWindows: func() bool { return m.showWindows },
		Filters:     func() filter.Filters { return m.filters },
		Location:    m.location,
		MapURL:      opts.MapURL,
		Scheduler:   loop,
		Logger:      logger,
	}
	return m
}

// Loop returns the loop the manager runs on.
func (m *Manager) Loop() *Loop { return m.loop }

// Sources returns the per-session image cache.
func (m *Manager) Sources() *source.Sources { return m.sources }

// Session returns the bound session, or nil.
func (m *Manager) Session() *session.Session { return m.session }

func (m *Manager) location() session.Location {
	if m.session == nil {
		return session.Location{}
	}
	return m.session.Location
}

// SetImage binds a new subject. Ports are cleared, loads of the previous
// image are cancelled and cached histograms dropped; call ShowGroup to
// rebuild the grid.
func (m *Manager) SetImage(imageID string, loc session.Location) {
	m.Clear()
	m.session = session.New(imageID, loc)
	m.sources.Reset(imageID)
	m.windows.ResetHistograms()
	m.logger.Info("image bound", "image", imageID, "location", loc, "session", m.session.ID)
}

// SetImageLocation moves the subject and tells every layer.
func (m *Manager) SetImageLocation(loc session.Location) {
	if m.session == nil {
		m.session = session.New("", loc)
	}
	m.session.Location = loc
	for _, p := range m.ports {
		p.LocationChanged(loc)
	}
}

// CurrentGroup returns the name of the shown group.
func (m *Manager) CurrentGroup() string { return m.current }

// Groups returns every group in registration order.
func (m *Manager) Groups() []view.Group { return m.groups.Entries() }

// SetGroups replaces the group set, e.g. with persisted groups. The current
// group is kept if it still exists.
func (m *Manager) SetGroups(groups []view.Group) {
	m.groups = view.NewGroups(groups...)
	if !m.groups.Has(m.current) && m.groups.Len() > 0 {
		m.current = m.groups.Names()[0]
	}
}

// Views returns the view registry.
func (m *Manager) Views() *view.Registry { return m.views }

// SetViews replaces the view registry. The grid is not rebuilt.
func (m *Manager) SetViews(views map[string]view.View) {
	m.views = view.NewRegistry(views)
}

// ShowGroup rebuilds the grid for group; "" means the current group.
func (m *Manager) ShowGroup(group string) error {
	if group == "" {
		group = m.current
	}
	names, ok := m.groups.Get(group)
	if !ok {
		return verrors.New(verrors.ErrCodeGroupNotFound, "group %q not found", group)
	}
	start := time.Now()

	captured, hadTransform := m.Transform()

	m.Clear()
	m.current = group

	resolved := m.resolve(names)
	m.count = len(resolved)
	m.tile = layout.TileSize(float64(m.viewport.Width), float64(m.viewport.Height), len(resolved), m.aspect)
	for id, v := range resolved {
		p := viewport.New(id, v, m)
		for _, l := range m.standard.Build(m.env, p, v, m.tile) {
			p.AddLayer(l)
		}
		m.ports = append(m.ports, p)
	}
	m.updateSize()

	if hadTransform {
		m.applyTransform(captured)
	}
	m.Render()
	m.ShowControls(m.showControls)

	observability.Grid().OnGroupShown(context.Background(), group, len(m.ports), time.Since(start))
	m.persist()
	return nil
}

// resolve maps view names to views, skipping unknown names.
func (m *Manager) resolve(names []string) []view.View {
	views := make([]view.View, 0, len(names))
	for _, name := range names {
		v, ok := m.views.Get(name)
		if !ok {
			m.logger.Warn("view not found in views configuration", "view", name, "group", m.current)
			continue
		}
		views = append(views, v)
	}
	return views
}

func (m *Manager) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Save(ctx, m.groups.Entries()); err != nil {
		m.logger.Warn("saving view groups failed", "err", err)
	}
}

// ShowNextGroup shows the group after the current one, wrapping around.
func (m *Manager) ShowNextGroup() error {
	next := m.groups.Next(m.current)
	if next == "" {
		return verrors.New(verrors.ErrCodeGroupNotFound, "no view groups configured")
	}
	m.notifier.Notify("Group: " + next)
	return m.ShowGroup(next)
}

// Resize sets the viewport size and re-runs the layout.
func (m *Manager) Resize(width, height int) {
	m.viewport = layout.Size{Width: width, Height: height}
	m.updateSize()
}

// Viewport returns the viewport size.
func (m *Manager) Viewport() layout.Size { return m.viewport }

// TileSize returns the current tile size.
func (m *Manager) TileSize() layout.Size { return m.tile }

func (m *Manager) updateSize() {
	m.tile = layout.TileSize(float64(m.viewport.Width), float64(m.viewport.Height), len(m.ports), m.aspect)
	for _, t := range layout.Arrange(m.tile, len(m.ports)) {
		p := m.ports[t.Index]
		p.SetSize(t.Width, t.Height)
		p.SetPosition(t.X, t.Y)
	}
	observability.Grid().OnLayout(context.Background(), len(m.ports), m.tile.Width, m.tile.Height)
}

// Clear destroys every port.
func (m *Manager) Clear() {
	for _, p := range m.ports {
		p.Close()
	}
	m.ports = nil
	m.count = 0
}

// AddView inserts name into the current group at position and rebuilds.
// A negative or out-of-range position appends.
func (m *Manager) AddView(name string, position int) error {
	if err := verrors.ValidateViewName(name); err != nil {
		return err
	}
	if !m.groups.Insert(m.current, position, name) {
		return verrors.New(verrors.ErrCodeGroupNotFound, "group %q not found", m.current)
	}
	return m.rebuild()
}

// ReplaceView puts name at position of the current group and rebuilds.
// An out-of-range position is ignored.
func (m *Manager) ReplaceView(position int, name string) error {
	if err := verrors.ValidateViewName(name); err != nil {
		return err
	}
	if !m.groups.Replace(m.current, position, name) {
		m.logger.Warn("replace view: no such position", "group", m.current, "position", position)
		return nil
	}
	return m.rebuild()
}

// RemoveView deletes position from the current group and rebuilds.
// An out-of-range position is ignored.
func (m *Manager) RemoveView(position int) error {
	if !m.groups.Remove(m.current, position) {
		m.logger.Warn("remove view: no such position", "group", m.current, "position", position)
		return nil
	}
	return m.rebuild()
}

func (m *Manager) rebuild() error {
	if err := m.ShowGroup(""); err != nil {
		return err
	}
	m.Render()
	return nil
}

// Render renders every port.
func (m *Manager) Render() {
	for _, p := range m.ports {
		p.Render()
	}
}

// ContrastWindow returns the window of view name, creating the default one
// on first access.
func (m *Manager) ContrastWindow(name string) contrast.Window {
	return m.windows.Get(name)
}

// SetContrastWindow updates min and max of view name, keeping its
// histogram, and re-renders.
func (m *Manager) SetContrastWindow(name string, min, max int) {
	m.windows.Set(name, min, max)
	m.Render()
}

// ContrastWindows returns a copy of every stored window.
func (m *Manager) ContrastWindows() map[string]contrast.Window {
	return m.windows.All()
}

// ShowContrastWindows reports whether windowing is visualised.
func (m *Manager) ShowContrastWindows() bool { return m.showWindows }

// ToggleContrastWindows flips windowing visualisation and syncs every
// widget.
func (m *Manager) ToggleContrastWindows() {
	m.showWindows = !m.showWindows
	for _, p := range m.ports {
		p.SyncContrastVisibility()
	}
}

// ShowControls sets the visibility of every tile's controls.
func (m *Manager) ShowControls(show bool) {
	for _, p := range m.ports {
		p.ShowControls(show)
	}
	m.showControls = show
}

// ToggleControls flips control visibility.
func (m *Manager) ToggleControls() {
	m.ShowControls(!m.showControls)
}

// ControlsVisible reports whether controls are shown.
func (m *Manager) ControlsVisible() bool { return m.showControls }

// Filters returns the global filters.
func (m *Manager) Filters() filter.Filters { return m.filters }

// SetFilters replaces the global filters and re-renders.
func (m *Manager) SetFilters(f filter.Filters) {
	m.filters = f.Normalize()
	m.Render()
}

// Layers returns the layers of every port, optionally only those of kind.
func (m *Manager) Layers(kind layer.Kind) []layer.Layer {
	var out []layer.Layer
	for _, p := range m.ports {
		for _, l := range p.Layers() {
			if kind == "" || l.Kind() == kind {
				out = append(out, l)
			}
		}
	}
	return out
}

// AddStandardLayer registers a layer constructor for every port built from
// now on. A nil predicate matches all views.
func (m *Manager) AddStandardLayer(c layer.Constructor, p layer.Predicate) {
	m.standard.Add(c, p)
}

// Ports returns the current ports in column order.
func (m *Manager) Ports() []*viewport.Port { return m.ports }

// Port returns the port at column id.
func (m *Manager) Port(id int) (*viewport.Port, error) {
	if id < 0 || id >= len(m.ports) {
		return nil, verrors.New(verrors.ErrCodePortNotFound, "no view port %d", id)
	}
	return m.ports[id], nil
}

// ViewNames lists every registered view.
func (m *Manager) ViewNames() []string { return m.views.Names() }

// ViewCount returns the number of tiles in the current group.
// It is known before the ports are built.
func (m *Manager) ViewCount() int { return m.count }

// Transform returns the transform of the first pixel layer, if any.
func (m *Manager) Transform() (transform.Affine, bool) {
	for _, p := range m.ports {
		if px := p.Pixels(); len(px) > 0 {
			return px[0].Transform(), true
		}
	}
	return transform.Identity(), false
}

// SetTransform applies t to every pixel layer and re-renders.
func (m *Manager) SetTransform(t transform.Affine) {
	m.applyTransform(t)
	m.Render()
}

// Pan translates every canvas in lockstep.
func (m *Manager) Pan(dx, dy float64) {
	t, _ := m.Transform()
	m.SetTransform(t.Pan(dx, dy))
}

// Zoom scales every canvas in lockstep about (cx, cy) in canvas pixels.
func (m *Manager) Zoom(factor, cx, cy float64) {
	t, _ := m.Transform()
	m.SetTransform(t.Zoom(factor, cx, cy))
}

func (m *Manager) applyTransform(t transform.Affine) {
	for _, p := range m.ports {
		for _, px := range p.Pixels() {
			px.SetTransform(t)
		}
	}
}

// Close destroys every port and cancels in-flight loads.
func (m *Manager) Close() error {
	m.Clear()
	m.sources.Close()
	return m.store.Close()
}

var _ viewport.Host = (*Manager)(nil)
