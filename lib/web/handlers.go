package web

import (
	"net/http"
	"time"
)

// HealthResponse contains the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
	Checks    map[string]string `json:"checks"`
}

// handleAPIHealth reports whether the engine is publishing statistics and
// whether it is holding any connections.
func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	overallStatus := "healthy"

	snap := s.source.Snapshot()
	switch {
	case snap == nil:
		checks["engine"] = "not_started"
		overallStatus = "unhealthy"
	case snap.Ticks == 0:
		checks["engine"] = "starting"
	default:
		checks["engine"] = "running"
	}

	if snap != nil {
		switch {
		case snap.Live > 0:
			checks["connections"] = "holding"
		case snap.Failed > 0:
			checks["connections"] = "failing"
		default:
			checks["connections"] = "none"
		}
	}

	resp := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Checks:    checks,
	}

	httpStatus := http.StatusOK
	if overallStatus != "healthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	s.writeJSON(w, httpStatus, resp)
}

// handleAPILiveness returns a simple liveness probe response.
func (s *Server) handleAPILiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
	})
}

// handleAPIReadiness reports ready once the engine has completed a tick.
func (s *Server) handleAPIReadiness(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	if snap == nil || snap.Ticks == 0 {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "no_ticks",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// handleAPIStats returns the latest snapshot.
func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	if snap == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no statistics yet")
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// LifetimesResponse lists recent connection lifetimes in whole seconds,
// newest first.
type LifetimesResponse struct {
	Lifetimes      []int64 `json:"lifetimes_seconds"`
	AverageSeconds int64   `json:"average_seconds"`
}

// handleAPILifetimes returns the lifetime history.
func (s *Server) handleAPILifetimes(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	if snap == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no statistics yet")
		return
	}

	resp := LifetimesResponse{
		Lifetimes:      make([]int64, len(snap.Lifetimes)),
		AverageSeconds: snap.AverageLifetimeSeconds,
	}
	for i, d := range snap.Lifetimes {
		resp.Lifetimes[i] = int64(d / time.Second)
	}
	s.writeJSON(w, http.StatusOK, resp)
}
