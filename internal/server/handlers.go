package server

import (
	"bytes"
	"image/png"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/viewgrid/pkg/buildinfo"
	"github.com/matzehuels/viewgrid/pkg/contrast"
	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/filter"
	"github.com/matzehuels/viewgrid/pkg/layer"
	"github.com/matzehuels/viewgrid/pkg/pipeline"
	"github.com/matzehuels/viewgrid/pkg/session"
	"github.com/matzehuels/viewgrid/pkg/view"
	"github.com/matzehuels/viewgrid/pkg/viewer"
	"github.com/matzehuels/viewgrid/pkg/viewport"
)

// state runs fn and answers with the resulting grid state.
func (s *Server) state(w http.ResponseWriter, r *http.Request, fn func(m *viewer.Manager) error) {
	var st viewer.State
	err := s.do(r.Context(), func(m *viewer.Manager) error {
		if err := fn(m); err != nil {
			return err
		}
		st = m.Snapshot()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type healthResponse struct {
	Status      string `json:"status"`
	Subscribers int    `json:"event_subscribers"`
	buildinfo.Info
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Subscribers: s.events.Subscribers(), Info: buildinfo.Get()})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.state(w, r, func(*viewer.Manager) error { return nil })
}

// =============================================================================
// Subject
// =============================================================================

type imageRequest struct {
	ImageID  string           `json:"image_id"`
	Location session.Location `json:"location"`
}

func (s *Server) handleSetImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := verrors.ValidateImageID(req.ImageID); err != nil {
		s.writeError(w, err)
		return
	}
	if !req.Location.Valid() {
		s.writeError(w, verrors.New(verrors.ErrCodeInvalidInput, "location %s out of range", req.Location))
		return
	}
	s.state(w, r, func(m *viewer.Manager) error {
		m.SetImage(req.ImageID, req.Location)
		return m.ShowGroup("")
	})
}

func (s *Server) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	var loc session.Location
	if err := decode(r, &loc); err != nil {
		s.writeError(w, err)
		return
	}
	if !loc.Valid() {
		s.writeError(w, verrors.New(verrors.ErrCodeInvalidInput, "location %s out of range", loc))
		return
	}
	s.state(w, r, func(m *viewer.Manager) error {
		m.SetImageLocation(loc)
		return nil
	})
}

// =============================================================================
// Groups and views
// =============================================================================

type groupsResponse struct {
	Current string       `json:"current"`
	Groups  []view.Group `json:"groups"`
	Views   []string     `json:"views"`
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	var resp groupsResponse
	err := s.do(r.Context(), func(m *viewer.Manager) error {
		resp = groupsResponse{Current: m.CurrentGroup(), Groups: m.Groups(), Views: m.ViewNames()}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNextGroup(w http.ResponseWriter, r *http.Request) {
	s.state(w, r, func(m *viewer.Manager) error { return m.ShowNextGroup() })
}

func (s *Server) handleShowGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.state(w, r, func(m *viewer.Manager) error { return m.ShowGroup(req.Name) })
}

func (s *Server) handleAddView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Position *int   `json:"position"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	pos := -1
	if req.Position != nil {
		pos = *req.Position
	}
	s.state(w, r, func(m *viewer.Manager) error { return m.AddView(req.Name, pos) })
}

func (s *Server) handleReplaceView(w http.ResponseWriter, r *http.Request) {
	pos, err := intParam(r, "pos")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.state(w, r, func(m *viewer.Manager) error {
		p, err := m.Port(pos)
		if err != nil {
			return err
		}
		return p.Select(req.Name)
	})
}

func (s *Server) handleRemoveView(w http.ResponseWriter, r *http.Request) {
	pos, err := intParam(r, "pos")
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.state(w, r, func(m *viewer.Manager) error {
		p, err := m.Port(pos)
		if err != nil {
			return err
		}
		return p.ClickRemove()
	})
}

// =============================================================================
// Contrast
// =============================================================================

type windowResponse struct {
	View         string  `json:"view"`
	Min          int     `json:"min"`
	Max          int     `json:"max"`
	HasHistogram bool    `json:"has_histogram"`
	Mean         float64 `json:"mean,omitempty"`
	StdDev       float64 `json:"std_dev,omitempty"`
	Visible      bool    `json:"visible"`
}

func (s *Server) window(m *viewer.Manager, name string) windowResponse {
	win := m.ContrastWindow(name)
	resp := windowResponse{
		View:         name,
		Min:          win.Min,
		Max:          win.Max,
		HasHistogram: win.Histogram != nil,
		Visible:      m.ShowContrastWindows(),
	}
	if win.Histogram != nil {
		resp.Mean, resp.StdDev = win.Histogram.Mean()
	}
	return resp
}

func (s *Server) handleGetContrast(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	if err := verrors.ValidateViewName(name); err != nil {
		s.writeError(w, err)
		return
	}
	var resp windowResponse
	if err := s.do(r.Context(), func(m *viewer.Manager) error {
		resp = s.window(m, name)
		return nil
	}); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetContrast(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	if err := verrors.ValidateViewName(name); err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Min  *int `json:"min"`
		Max  *int `json:"max"`
		Auto bool `json:"auto"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	var resp windowResponse
	err := s.do(r.Context(), func(m *viewer.Manager) error {
		cur := m.ContrastWindow(name)
		min, max := cur.Min, cur.Max
		if req.Auto {
			auto := contrast.AutoWindow(cur.Histogram, pipeline.DefaultAutoLow, pipeline.DefaultAutoHigh)
			min, max = auto.Min, auto.Max
		}
		if req.Min != nil {
			min = *req.Min
		}
		if req.Max != nil {
			max = *req.Max
		}
		if min > max {
			return verrors.New(verrors.ErrCodeInvalidInput, "min %d above max %d", min, max)
		}
		m.SetContrastWindow(name, min, max)
		for _, p := range m.Ports() {
			if p.View().Name == name && p.Widget() != nil {
				p.Widget().Slider.Sync(min, max)
			}
		}
		resp = s.window(m, name)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggleContrast(w http.ResponseWriter, r *http.Request) {
	s.state(w, r, func(m *viewer.Manager) error {
		m.ToggleContrastWindows()
		return nil
	})
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	err = s.do(r.Context(), func(m *viewer.Manager) error {
		p, err := m.Port(id)
		if err != nil {
			return err
		}
		if p.Widget() == nil {
			return viewport.ErrNoWidget
		}
		plot := p.Widget().Plot()
		if plot == nil {
			return verrors.New(verrors.ErrCodeNotFound, "histogram of %s not available yet", p.View().Name)
		}
		return png.Encode(&buf, plot)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

// =============================================================================
// Display
// =============================================================================

func (s *Server) handleToggleControls(w http.ResponseWriter, r *http.Request) {
	s.state(w, r, func(m *viewer.Manager) error {
		m.ToggleControls()
		return nil
	})
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var f filter.Filters
	if err := decode(r, &f); err != nil {
		s.writeError(w, err)
		return
	}
	if f.Brightness < 0 || f.Saturation < 0 {
		s.writeError(w, verrors.New(verrors.ErrCodeInvalidInput, "brightness and saturation cannot be negative"))
		return
	}
	s.state(w, r, func(m *viewer.Manager) error {
		m.SetFilters(f)
		return nil
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		s.writeError(w, verrors.New(verrors.ErrCodeInvalidInput, "width and height must be positive"))
		return
	}
	s.state(w, r, func(m *viewer.Manager) error {
		m.Resize(req.Width, req.Height)
		return nil
	})
}

// transformRequest targets every canvas, or only Port when set.
type transformRequest struct {
	Port   *int    `json:"port"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Factor float64 `json:"factor"`
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
}

func (s *Server) handlePan(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.state(w, r, func(m *viewer.Manager) error {
		if req.Port == nil {
			m.Pan(req.DX, req.DY)
			return nil
		}
		p, err := m.Port(*req.Port)
		if err != nil {
			return err
		}
		p.Pan(req.DX, req.DY)
		return nil
	})
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Factor <= 0 {
		s.writeError(w, verrors.New(verrors.ErrCodeInvalidInput, "zoom factor must be positive"))
		return
	}
	s.state(w, r, func(m *viewer.Manager) error {
		if req.Port == nil {
			m.Zoom(req.Factor, req.CX, req.CY)
			return nil
		}
		p, err := m.Port(*req.Port)
		if err != nil {
			return err
		}
		p.Zoom(req.Factor, req.CX, req.CY)
		return nil
	})
}

type layerResponse struct {
	Port int        `json:"port"`
	View string     `json:"view"`
	Kind layer.Kind `json:"kind"`
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	kind := layer.Kind(r.URL.Query().Get("kind"))
	resp := []layerResponse{}
	err := s.do(r.Context(), func(m *viewer.Manager) error {
		for _, p := range m.Ports() {
			for _, l := range p.Layers() {
				if kind == "" || l.Kind() == kind {
					resp = append(resp, layerResponse{Port: p.ID(), View: l.View().Name, Kind: l.Kind()})
				}
			}
		}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleComposite(w http.ResponseWriter, r *http.Request) {
	format := pipeline.NormalizeFormat(chi.URLParam(r, "format"))
	if format != pipeline.FormatPNG && format != pipeline.FormatJPEG {
		s.writeError(w, verrors.New(verrors.ErrCodeInvalidFormat, "unsupported composite format %q", format))
		return
	}
	var data []byte
	err := s.do(r.Context(), func(m *viewer.Manager) error {
		if len(m.Ports()) == 0 {
			return verrors.New(verrors.ErrCodeNotFound, "no tiles to composite")
		}
		var err error
		data, err = pipeline.Encode(m.Composite(), viewer.State{}, format, s.quality)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/"+format)
	_, _ = w.Write(data)
}

func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, verrors.New(verrors.ErrCodeInvalidInput, "%s must be an integer", name)
	}
	return v, nil
}
