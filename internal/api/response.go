package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// errorBody is the error half of the response envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a {"data": ...} envelope with the given status code.
// Uses a buffer-first strategy so headers are only sent after successful
// encoding; an encoding failure still yields a proper 500.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, map[string]any{"data": data})
}

// WriteError writes an {"error": {...}} envelope with the given status code.
func WriteError(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "code", code, "message", message)
	}
	writeEnvelope(w, status, map[string]any{"error": errorBody{Code: code, Message: message}})
}

func writeEnvelope(w http.ResponseWriter, status int, envelope map[string]any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(envelope); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected.
		slog.Debug("failed to write response body", "error", err)
	}
}
