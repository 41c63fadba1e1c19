package api

import (
	"log/slog"
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *APIServer) healthHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: time.Now().UTC().Format(time.RFC3339)})
	}
}

// cronHandler lets an external scheduler trigger the health ping. It is
// guarded by the shared cron secret.
func (s *APIServer) cronHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.Cron.Secret == "" {
			s.logger.Error("Cron secret is not configured")
			writeError(w, http.StatusInternalServerError, "cron secret not configured")
			return
		}

		if r.Header.Get("Authorization") != "Bearer "+s.config.Cron.Secret {
			s.logger.Warn("Unauthorized cron call")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if s.pinger == nil {
			writeError(w, http.StatusInternalServerError, "api url not configured")
			return
		}

		res := s.pinger.Ping(r.Context())
		if res.OK {
			s.logger.Info("Health check succeeded", slog.String("url", res.HealthCheck.URL))
			writeJSON(w, http.StatusOK, res)
			return
		}

		status := http.StatusInternalServerError
		if res.Error.Status != 0 {
			status = res.Error.Status
		}
		s.logger.Error("Health check failed", slog.String("url", res.Error.URL), slog.Int("status", res.Error.Status))
		writeJSON(w, status, res)
	}
}
