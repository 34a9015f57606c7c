package handlers

import (
	"net/http"
	"time"

	"tap-analytics-service/internal/middleware"
	"tap-analytics-service/pkg/response"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"ok":        true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if r.URL.Query().Get("latency") == "1" {
		payload["latency"] = middleware.LatencySnapshot()
	}
	response.JSON(w, http.StatusOK, payload)
}
