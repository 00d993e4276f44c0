package api

import "net/http"

// HandleStatus handles GET /status. It always answers 200 so pollers can
// tell "no data yet" apart from "service down".
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.views.Status(r.Context()))
}
