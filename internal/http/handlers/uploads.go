package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"tap-analytics-service/internal/analysis"
	"tap-analytics-service/internal/daterange"
	"tap-analytics-service/internal/loader"
	"tap-analytics-service/internal/middleware"
	"tap-analytics-service/internal/services"
	"tap-analytics-service/pkg/response"
)

const (
	uploadClientID     = "upload"
	multipartMemoryCap = 32 << 20
)

type fileReadErrorKind string

const (
	fileReadErrMissing     fileReadErrorKind = "missing"
	fileReadErrReadFailed  fileReadErrorKind = "read_failed"
	fileReadErrTooLarge    fileReadErrorKind = "too_large"
	fileReadErrInvalidType fileReadErrorKind = "invalid_type"
)

type fileReadError struct {
	Kind    fileReadErrorKind
	Message string
	Err     error
}

var uploadExtensions = map[string]bool{".csv": true, ".txt": true, ".xlsx": true, ".xlsm": true}

func readFileBytes(r *http.Request, field string, maxBytes int64) ([]byte, string, *fileReadError) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", &fileReadError{Kind: fileReadErrMissing, Message: "File is required", Err: err}
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !uploadExtensions[strings.ToLower(filepath.Ext(name))] {
		return nil, name, &fileReadError{Kind: fileReadErrInvalidType, Message: "Invalid file type. Please upload a CSV or XLSX export."}
	}

	data, readErr := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if readErr != nil {
		return nil, name, &fileReadError{Kind: fileReadErrReadFailed, Message: "Failed to read file", Err: readErr}
	}
	if int64(len(data)) > maxBytes {
		return nil, name, &fileReadError{Kind: fileReadErrTooLarge, Message: fmt.Sprintf("File size must be less than %dMB.", maxBytes/(1024*1024))}
	}
	return data, name, nil
}

// AnalysisUpload runs the core over one uploaded export.
func (h *Handler) AnalysisUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	maxBytes := h.Config.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartMemoryCap)
	if err := r.ParseMultipartForm(multipartMemoryCap); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Upload exceeds the size limit")
			return
		}
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Expected a multipart form with a file field")
		return
	}

	data, name, ferr := readFileBytes(r, "file", maxBytes)
	if ferr != nil {
		switch ferr.Kind {
		case fileReadErrMissing:
			response.Error(w, http.StatusBadRequest, "FILE_REQUIRED", ferr.Message)
		case fileReadErrTooLarge:
			response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", ferr.Message)
		case fileReadErrInvalidType:
			response.Error(w, http.StatusBadRequest, "UNSUPPORTED_FORMAT", ferr.Message)
		default:
			response.Error(w, http.StatusInternalServerError, "UPLOAD_FAILED", ferr.Message)
		}
		return
	}

	clientID := strings.TrimSpace(r.FormValue("clientId"))
	if clientID == "" {
		clientID = uploadClientID
	} else if !middleware.ClientAllowed(r, clientID) {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Token does not grant access to this client")
		return
	}

	table, err := loader.Decode(name, data)
	if err != nil {
		if errors.Is(err, loader.ErrUnsupportedFormat) {
			response.Error(w, http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error())
			return
		}
		response.Error(w, http.StatusBadRequest, "PARSE_ERROR", err.Error())
		return
	}

	params := daterange.Params{
		Start:  strings.TrimSpace(r.FormValue("start")),
		End:    strings.TrimSpace(r.FormValue("end")),
		Preset: strings.TrimSpace(r.FormValue("preset")),
	}
	result := analysis.Run(table, clientID, params, h.Analytics.Profile.Get().Aliases, h.Logger)
	response.Success(w, services.StandardReport{
		Result:               result,
		GeneratedAt:          time.Now().UTC().Format(time.RFC3339),
		ExecutionTimeSeconds: float64(time.Since(start).Milliseconds()) / 1000,
		Sources:              []string{name},
	})
}
