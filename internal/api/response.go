package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes returned in the error envelope.
const (
	ErrCodeNotFound       = "not_found"
	ErrCodeBadRequest     = "bad_request"
	ErrCodeTraversalLimit = "traversal_limit"
	ErrCodeInternal       = "internal"
)

// Response is the JSON envelope of every API response.
type Response struct {
	Status string     `json:"status"` // "ok" or "error"
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("write response", "error", err)
	}
}

func respondOK(w http.ResponseWriter, logger *slog.Logger, data any) {
	respondJSON(w, logger, http.StatusOK, Response{Status: "ok", Data: data})
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, code, message string, details any) {
	respondJSON(w, logger, status, Response{
		Status: "error",
		Error:  &ErrorBody{Code: code, Message: message, Details: details},
	})
}
