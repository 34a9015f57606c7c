package handlers

import (
	"net/http"
	"time"

	"tap-analytics-service/internal/queue"
	"tap-analytics-service/internal/store"
	"tap-analytics-service/pkg/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalysisJobCreate queues a run for the background worker.
func (h *Handler) AnalysisJobCreate(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if !h.authorizeClient(w, r, req.ClientID) {
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = queue.KindStandard
	}
	if kind != queue.KindStandard && kind != queue.KindAdvanced {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "kind must be standard or advanced")
		return
	}
	if _, err := h.Analytics.Folder(req.ClientID); err != nil {
		h.writeAnalysisError(w, r, err)
		return
	}
	if h.Queue == nil {
		response.Error(w, http.StatusServiceUnavailable, "QUEUE_NOT_CONFIGURED", "Job queue is not configured")
		return
	}

	job := queue.AnalysisJob{
		JobID:        uuid.NewString(),
		ClientID:     req.ClientID,
		Kind:         kind,
		Params:       req.Params.DateRange,
		ReportPeriod: req.Params.ReportPeriod,
		UploadToDB:   req.Params.UploadToDB,
		RequestedAt:  time.Now().UTC(),
	}
	if err := h.Queue.PublishAnalysisJob(r.Context(), job); err != nil {
		h.Logger.Error("analysis job publish failed", zap.String("client_id", job.ClientID), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "QUEUE_ERROR", "Failed to queue analysis job")
		return
	}
	response.Accepted(w, map[string]any{"jobId": job.JobID, "kind": job.Kind})
}

// AnalysisRuns lists a client's stored runs, newest first.
func (h *Handler) AnalysisRuns(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if !h.authorizeClient(w, r, clientID) {
		return
	}
	runs, err := h.Analytics.Runs(r.Context(), clientID, readQueryInt(r, "limit", 20))
	if err != nil {
		h.writeAnalysisError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	response.Success(w, map[string]any{"runs": runs})
}
