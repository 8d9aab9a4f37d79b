// Package common holds the JSON reply helpers shared by the API handlers.
package common

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse is the body of every error reply. RequestID echoes the id
// assigned by the request id middleware, when there is one.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// WriteJSONResponse encodes data as the reply body. Glucose readings go stale
// within minutes, so replies are never cacheable.
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// WriteErrorResponse replies with an ErrorResponse for r
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	body := ErrorResponse{Error: message}
	if r != nil {
		body.RequestID = middleware.GetReqID(r.Context())
	}
	if statusCode >= http.StatusInternalServerError {
		slog.Warn("Request failed", "path", requestPath(r), "status", statusCode, "error", message,
			"request_id", body.RequestID)
	}
	WriteJSONResponse(w, body, statusCode)
}

func requestPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.Path
}
