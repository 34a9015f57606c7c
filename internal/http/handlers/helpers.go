package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"tap-analytics-service/internal/config"
	"tap-analytics-service/internal/loader"
	"tap-analytics-service/internal/middleware"
	"tap-analytics-service/internal/services"
	"tap-analytics-service/internal/storage"
	"tap-analytics-service/pkg/response"

	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func readQueryInt(r *http.Request, key string, fallback int) int {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// authorizeClient writes the rejection and returns false when clientID is
// missing or outside the caller's token.
func (h *Handler) authorizeClient(w http.ResponseWriter, r *http.Request, clientID string) bool {
	if strings.TrimSpace(clientID) == "" {
		response.ErrorWithHint(w, http.StatusBadRequest, "VALIDATION_ERROR", "clientId is required", h.Analytics.Profile.Get().ClientHint())
		return false
	}
	if !middleware.ClientAllowed(r, clientID) {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Token does not grant access to this client")
		return false
	}
	return true
}

// writeAnalysisError maps loader, config and store failures onto statuses.
func (h *Handler) writeAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, config.ErrUnknownClient):
		response.ErrorWithHint(w, http.StatusBadRequest, "INVALID_CLIENT", err.Error(), h.Analytics.Profile.Get().ClientHint())
	case errors.Is(err, loader.ErrNoFiles), errors.Is(err, loader.ErrNoRawFiles):
		response.Error(w, http.StatusNotFound, "NO_DATA", err.Error())
	case errors.Is(err, storage.ErrNotConfigured):
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_NOT_CONFIGURED", "Object storage is not configured")
	case errors.Is(err, loader.ErrStorage):
		h.Logger.Error("object storage failed", zap.String("path", r.URL.Path), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "STORAGE_ERROR", "Failed to read client data from storage")
	case errors.Is(err, services.ErrNoStore):
		response.Error(w, http.StatusServiceUnavailable, "DATABASE_NOT_CONFIGURED", "Result database is not configured")
	case errors.Is(err, context.Canceled):
		response.Error(w, http.StatusRequestTimeout, "REQUEST_CANCELED", "Request canceled")
	default:
		h.Logger.Error("analysis failed", zap.String("path", r.URL.Path), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "ANALYSIS_FAILED", "Failed to analyze client data")
	}
}
