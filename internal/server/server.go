// Package server exposes a viewer.Manager over HTTP.
//
// Every request is executed on the manager's loop, so handlers never touch
// the grid concurrently. The loop must be running for requests to complete.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/view"
	"github.com/matzehuels/viewgrid/pkg/viewer"
	"github.com/matzehuels/viewgrid/pkg/viewport"
)

// maxBody bounds JSON request bodies.
const maxBody = 1 << 20

// Server serves the grid API.
type Server struct {
	manager *viewer.Manager
	logger  *log.Logger
	events  *Hub
	quality int
}

// Option configures a Server.
type Option func(*Server)

// WithHub publishes events through h instead of a private hub. Pass the
// same hub as the manager's notifier to forward notifications.
func WithHub(h *Hub) Option {
	return func(s *Server) {
		if h != nil {
			s.events = h
		}
	}
}

// New creates a server for m. A nil logger discards.
func New(m *viewer.Manager, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{manager: m, logger: logger, events: NewHub(), quality: 90}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the hub feeding /api/events.
func (s *Server) Events() *Hub { return s.events }

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.publishChanges)

	r.Get("/healthz", s.handleHealth)
	r.Get("/composite.{format}", s.handleComposite)
	r.Get("/ports/{id}/histogram.png", s.handleHistogram)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/events", s.handleEvents)
		r.Post("/image", s.handleSetImage)
		r.Put("/location", s.handleSetLocation)

		r.Get("/groups", s.handleGroups)
		r.Post("/groups/next", s.handleNextGroup)
		r.Put("/groups/current", s.handleShowGroup)

		r.Post("/views", s.handleAddView)
		r.Put("/views/{pos}", s.handleReplaceView)
		r.Delete("/views/{pos}", s.handleRemoveView)

		r.Get("/contrast/{view}", s.handleGetContrast)
		r.Put("/contrast/{view}", s.handleSetContrast)
		r.Post("/contrast/toggle", s.handleToggleContrast)

		r.Post("/controls/toggle", s.handleToggleControls)
		r.Put("/filters", s.handleSetFilters)
		r.Put("/size", s.handleResize)
		r.Post("/transform/pan", s.handlePan)
		r.Post("/transform/zoom", s.handleZoom)
		r.Get("/layers", s.handleLayers)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

// Reload swaps the view registry and rebuilds the current group.
func (s *Server) Reload(ctx context.Context, views map[string]view.View) error {
	return s.do(ctx, func(m *viewer.Manager) error {
		m.SetViews(views)
		return m.ShowGroup("")
	})
}

// do runs fn on the manager loop.
func (s *Server) do(ctx context.Context, fn func(m *viewer.Manager) error) error {
	return s.manager.Loop().Do(ctx, func() error { return fn(s.manager) })
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error string       `json:"error"`
	Code  verrors.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: verrors.UserMessage(err), Code: verrors.GetCode(err)})
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, viewport.ErrLastView):
		return http.StatusConflict
	case errors.Is(err, viewport.ErrNoWidget):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, viewer.ErrLoopStopped):
		return http.StatusServiceUnavailable
	}
	return verrors.HTTPStatus(err)
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return verrors.Wrap(verrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
