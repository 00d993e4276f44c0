// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/consolidator/internal/adapters/repository"
	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/pipeline"
)

const (
	defaultMaxLimit   = 10000
	defaultExportName = "consolidated"
)

// ViewReader exposes the served view and its freshness.
type ViewReader interface {
	Current(ctx context.Context) (*pipeline.View, error)
	Status(ctx context.Context) repository.Status
}

// RefreshRequester accepts manual refresh requests. It returns queue.ErrFull
// on backpressure and queue.ErrClosed during shutdown.
type RefreshRequester interface {
	RequestRefresh(ctx context.Context) (model.Trigger, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ViewReader
	RefreshRequester
}

// Server wires HTTP routes for the read surface.
type Server struct {
	views   ViewReader
	refresh RefreshRequester

	healthHandler *HealthHandler
	statsHandler  *StatsHandler

	defaultColumns []string
	maxLimit       int
	exportName     string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		views:         deps,
		refresh:       deps,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		maxLimit:      defaultMaxLimit,
		exportName:    defaultExportName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/status", MetricsMiddleware(s.HandleStatus, "status"))
	mux.HandleFunc("/records", MetricsMiddleware(s.HandleRecords, "records"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.HandleSummary, "summary"))
	mux.HandleFunc("/pivot", MetricsMiddleware(s.HandlePivot, "pivot"))
	mux.HandleFunc("/export.csv", MetricsMiddleware(s.HandleExport, "export"))
	mux.HandleFunc("/refresh", MetricsMiddleware(s.HandleRefresh, "refresh"))
}

// viewMeta is attached to every response derived from a view.
type viewMeta struct {
	ViewID  string    `json:"view_id"`
	BuiltAt time.Time `json:"built_at"`
	Stale   bool      `json:"stale"`
}

type errorResponse struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	FailedSource string `json:"failed_source,omitempty"`
}

// currentView loads the served view or writes the unavailable response.
func (s *Server) currentView(w http.ResponseWriter, r *http.Request, op string) (*pipeline.View, viewMeta, bool) {
	v, err := s.views.Current(r.Context())
	st := s.views.Status(r.Context())
	if err != nil {
		writeUnavailable(w, op, st, err)
		return nil, viewMeta{}, false
	}
	if st.Stale {
		w.Header().Set("X-View-Stale", "true")
	}
	return v, viewMeta{ViewID: v.ID, BuiltAt: v.BuiltAt, Stale: st.Stale}, true
}

func writeUnavailable(w http.ResponseWriter, op string, st repository.Status, err error) {
	if !errors.Is(err, repository.ErrNoView) {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	msg := wrapKind(op, ErrUnavailable, err).Error()
	if st.LastError != "" {
		msg = st.LastError
	}
	writeErrorResponse(w, http.StatusServiceUnavailable, errorResponse{
		Code:         "data_unavailable",
		Message:      msg,
		FailedSource: st.FailedSource,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeErrorResponse(w, status, errorResponse{Code: code, Message: msg})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	if t, ok := w.(errorTagger); ok {
		t.tagError(resp.Code, resp.FailedSource)
	}
	writeJSON(w, status, resp)
}

// allow rejects requests whose method is not m.
func allow(w http.ResponseWriter, r *http.Request, m string) bool {
	if r.Method == m || (m == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	w.Header().Set("Allow", m)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	return false
}
