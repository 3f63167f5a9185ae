package server

import (
	"encoding/json"
	"net/http"

	"checkout-be/internal/logger"

	"go.uber.org/zap"
)

const maxBodyBytes = 1_048_576 // 1mb

type errorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// readJSON decodes the body into data. Unknown fields are tolerated since
// browser clients tend to send extra form state along.
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(data)
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, message string, details json.RawMessage) {
	if err := writeJSON(w, status, &errorResponse{Error: message, Details: details}); err != nil {
		logger.FromCtx(r.Context()).Error("failed writing error response", zap.Error(err))
	}
}
