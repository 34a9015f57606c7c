package handlers

import (
	"net/http"

	"tap-analytics-service/internal/middleware"
	"tap-analytics-service/internal/services"
	"tap-analytics-service/pkg/response"

	"go.uber.org/zap"
)

const maxTableRows = 500

// AnalysisRun runs the core over a client's stored exports.
func (h *Handler) AnalysisRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if !h.authorizeClient(w, r, req.ClientID) {
		return
	}

	out, err := h.Analytics.Standard(r.Context(), req.ClientID, req.Params.DateRange)
	if err != nil {
		h.writeAnalysisError(w, r, err)
		return
	}
	response.Success(w, out)
}

// AnalysisAdvanced runs the multi-export suite and optionally stores it.
func (h *Handler) AnalysisAdvanced(w http.ResponseWriter, r *http.Request) {
	var req advancedRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if !h.authorizeClient(w, r, req.ClientID) {
		return
	}

	ctx := r.Context()
	out, err := h.Analytics.Advanced(ctx, req.ClientID)
	if err != nil {
		h.writeAnalysisError(w, r, err)
		return
	}

	payload := advancedResponse{
		ClientID:             out.ClientID,
		Folder:               out.Folder,
		GeneratedAt:          out.GeneratedAt,
		KPIs:                 out.KPIs,
		Charts:               out.Charts,
		Tables:               capTables(out.Tables, maxTableRows),
		ExecutionTimeSeconds: out.ExecutionTimeSeconds,
		Sources:              out.Sources,
	}
	if req.Params.UploadToDB {
		saved, err := h.Analytics.Persist(ctx, out.ClientID, services.KindAdvanced, req.Params.ReportPeriod, out, out.Tables)
		if err != nil {
			h.Logger.Warn("advanced upload failed", zap.String("client_id", out.ClientID), zap.Error(err))
			payload.Upload = &uploadStatus{Success: false, Error: err.Error()}
		} else {
			payload.Upload = &uploadStatus{Success: true, Run: &saved}
		}
	}
	response.Success(w, payload)
}

// Clients lists the configured clients the caller may read.
func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	profile := h.Analytics.Profile.Get()
	clients := make([]clientEntry, 0, len(profile.Clients))
	for _, id := range profile.ClientIDs() {
		if !middleware.ClientAllowed(r, id) {
			continue
		}
		clients = append(clients, clientEntry{ID: id, Folder: profile.Clients[id]})
	}
	response.Success(w, map[string]any{
		"clients":        clients,
		"aliasesVersion": profile.Aliases.Version,
	})
}
