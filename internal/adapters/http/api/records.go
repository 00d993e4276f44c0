package api

import (
	"fmt"
	"net/http"

	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/report"
)

// allColumns requests every projectable column of the view.
const allColumns = "all"

// filterParams maps query parameters onto the columns they filter.
var filterParams = map[string]string{ //nolint:gochecknoglobals // fixed table
	"tier":     model.ColRiskTier,
	"status":   model.ColConsolidatedStatus,
	"reason":   model.ColReason,
	"operator": model.ColOperator,
	"origin":   model.ColOrigin,
}

type recordsResponse struct {
	viewMeta
	report.Frame
	Count int `json:"count"`
}

// HandleRecords handles GET /records.
//
// Query parameters: columns (comma list or "all"), tier, status, reason,
// operator, origin (repeatable), sort=aging and limit.
func (s *Server) HandleRecords(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_records"
	if !allow(w, r, http.MethodGet) {
		return
	}
	q, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	v, meta, ok := s.currentView(w, r, op)
	if !ok {
		return
	}
	f := v.Project(q)
	writeJSON(w, http.StatusOK, recordsResponse{viewMeta: meta, Frame: f, Count: f.Len()})
}

func (s *Server) parseQuery(r *http.Request) (report.Query, error) {
	params := r.URL.Query()

	var q report.Query
	switch cols := listParam(params, "columns"); {
	case len(cols) == 1 && cols[0] == allColumns:
	case len(cols) > 0:
		q.Columns = cols
	default:
		q.Columns = s.defaultColumns
	}

	for param, col := range filterParams {
		if vals := valuesParam(params, param); len(vals) > 0 {
			if q.Filters == nil {
				q.Filters = make(map[string][]string, len(filterParams))
			}
			q.Filters[col] = vals
		}
	}

	switch sort := params.Get("sort"); sort {
	case "":
	case "aging":
		q.SortByAging = true
	default:
		return report.Query{}, fmt.Errorf("unknown sort %q", sort)
	}

	limit, ok := intParam(params, "limit", 0)
	if !ok {
		return report.Query{}, fmt.Errorf("limit must be a non-negative integer")
	}
	if limit > s.maxLimit {
		return report.Query{}, fmt.Errorf("limit exceeds %d", s.maxLimit)
	}
	q.Limit = limit
	return q, nil
}

type summaryResponse struct {
	viewMeta
	report.Summary
	Scheme    string          `json:"scheme"`
	AgingMode string          `json:"aging_mode"`
	Tiers     []string        `json:"tiers"`
	Drift     []driftResponse `json:"drift"`
}

type driftResponse struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// HandleSummary handles GET /summary.
func (s *Server) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_summary"
	if !allow(w, r, http.MethodGet) {
		return
	}
	v, meta, ok := s.currentView(w, r, op)
	if !ok {
		return
	}
	drift := make([]driftResponse, 0, len(v.Drift))
	for _, d := range v.Drift {
		drift = append(drift, driftResponse{Table: d.Table, Column: d.Column})
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		viewMeta:  meta,
		Summary:   v.Summary,
		Scheme:    v.Scheme.Name(),
		AgingMode: string(v.AgingMode),
		Tiers:     v.Scheme.Labels(),
		Drift:     drift,
	})
}

type pivotResponse struct {
	viewMeta
	report.Pivot
}

// HandlePivot handles GET /pivot?by=status|reason.
func (s *Server) HandlePivot(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pivot"
	if !allow(w, r, http.MethodGet) {
		return
	}
	by, err := report.ParseDimension(r.URL.Query().Get("by"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	v, meta, ok := s.currentView(w, r, op)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pivotResponse{viewMeta: meta, Pivot: v.Pivot(by)})
}

// HandleExport handles GET /export.csv with every column and row of the view.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	if !allow(w, r, http.MethodGet) {
		return
	}
	v, _, ok := s.currentView(w, r, op)
	if !ok {
		return
	}
	name := fmt.Sprintf("%s-%s.csv", s.exportName, v.BuiltAt.UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	// Headers are already sent; a write error can only be a dropped client.
	_ = report.WriteCSV(w, v.Project(report.Query{}))
}
