package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"tap-analytics-service/internal/daterange"
	"tap-analytics-service/internal/report"
	"tap-analytics-service/pkg/response"

	"go.uber.org/zap"
)

const reportLinkTTL = time.Hour

// AnalysisReportPDF renders the executive summary. With link=true the PDF
// is uploaded and a presigned link returned instead of the bytes.
func (h *Handler) AnalysisReportPDF(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("clientId")
	if !h.authorizeClient(w, r, clientID) {
		return
	}
	wantLink := strings.EqualFold(q.Get("link"), "true")
	if wantLink && h.Reports == nil {
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_NOT_CONFIGURED", "Object storage is not configured")
		return
	}

	ctx := r.Context()
	out, err := h.Analytics.Standard(ctx, clientID, daterange.Params{
		Start:  q.Get("start"),
		End:    q.Get("end"),
		Preset: q.Get("preset"),
	})
	if err != nil {
		h.writeAnalysisError(w, r, err)
		return
	}

	now := time.Now()
	buf, err := report.ExecutiveSummary(out.Folder, out.Result, now)
	if err != nil {
		h.Logger.Error("executive summary failed", zap.String("client_id", clientID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "REPORT_FAILED", "Failed to render report")
		return
	}
	filename := fmt.Sprintf("%s-executive-summary-%s.pdf", strings.ToLower(out.Folder), now.Format("20060102"))

	if !wantLink {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	key := fmt.Sprintf("reports/%s/%d-%s", strings.ToLower(out.ClientID), now.UnixMilli(), filename)
	publicURL, err := h.Reports.PutObject(ctx, key, buf.Bytes(), "application/pdf")
	if err != nil {
		h.Logger.Error("report upload failed", zap.String("key", key), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "STORAGE_ERROR", "Failed to store report")
		return
	}
	url, err := h.Reports.PresignGetObject(ctx, key, reportLinkTTL)
	if err != nil {
		h.Logger.Error("report presign failed", zap.String("key", key), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "STORAGE_ERROR", "Failed to sign report link")
		return
	}
	data := map[string]any{
		"key":       key,
		"url":       url,
		"expiresAt": now.Add(reportLinkTTL).UTC().Format(time.RFC3339),
	}
	if publicURL != "" {
		data["publicUrl"] = publicURL
	}
	response.Success(w, data)
}
