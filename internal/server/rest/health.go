package rest

import "net/http"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	report := s.svc.Health.Check(r.Context())

	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, report)
	return nil
}
