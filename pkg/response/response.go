// Package response writes the JSON envelope every API route answers with:
// {"success":true,"data":...} or {"success":false,"error":CODE,"message":...}.
package response

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// Accepted acknowledges queued work.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, envelope{Success: true, Data: data})
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, envelope{Error: code, Message: message})
}

// ErrorWithHint adds a hint telling the caller how to fix the request.
func ErrorWithHint(w http.ResponseWriter, status int, code string, message string, hint string) {
	JSON(w, status, envelope{Error: code, Message: message, Hint: hint})
}
