package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
)

// This file contains shared DTOs for API responses and helper functions for
// sending consistent HTTP responses.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse defines a generic success response for operations that don't
// return a resource.
type StatusResponse struct {
	Status string `json:"status"`
}

// OpenResponse reports the open flag after open/close/toggle.
type OpenResponse struct {
	Open bool `json:"open"`
}

// respondWithError maps business-layer errors to HTTP status codes and writes
// a standard JSON error response.
func respondWithError(w http.ResponseWriter, err error) {
	statusCode, message := errorStatus(err)

	// The detailed error is logged; the client gets the generic message.
	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)

	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// errorStatus picks the HTTP status and client-safe message for err.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		return http.StatusNotFound, "The requested resource was not found."
	case errors.Is(err, app_errors.ErrValidation), errors.Is(err, app_errors.ErrConfiguration):
		// These messages are already descriptive and safe to show.
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, app_errors.ErrLimitReached):
		return http.StatusConflict, "The conversation limit for this session has been reached."
	case errors.Is(err, app_errors.ErrStreamInProgress):
		return http.StatusConflict, "A response is already streaming for this widget."
	case errors.Is(err, app_errors.ErrUnauthorized):
		return http.StatusBadGateway, "The upstream service rejected the configured API key."
	case errors.Is(err, app_errors.ErrUpload):
		return http.StatusBadGateway, "The attachment could not be uploaded."
	case errors.Is(err, app_errors.ErrUpstream), errors.Is(err, app_errors.ErrTransport):
		return http.StatusBadGateway, "The upstream service is unavailable."
	default:
		// Anything else is an internal error; details stay in the log.
		return http.StatusInternalServerError, "An unexpected internal server error occurred."
	}
}

// respondWithJSON marshals payload and writes it with the given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// sendStreamError sends a structured error message over an SSE stream.
func sendStreamError(w http.ResponseWriter, message string) {
	slog.Warn("Sending stream error to client", "message", message)
	jsonData, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		slog.Error("Failed to marshal stream error payload", "error", err)
		return
	}

	// `event: error` lets clients register a dedicated listener.
	if _, err := fmt.Fprintf(w, "event: error\ndata: %s\n\n", string(jsonData)); err != nil {
		// Usually the client closed the connection.
		slog.Warn("Failed to write stream error, client might have disconnected", "error", err)
		return
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// writeStreamEvent marshals data and writes it as one SSE event. A write error
// means the client has gone away.
func writeStreamEvent(w http.ResponseWriter, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal stream data to JSON", "error", err)
		// The connection is fine; only this payload is bad.
		return nil
	}

	if event != "" {
		_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		_, err = fmt.Fprintf(w, "data: %s\n\n", string(jsonData))
	}
	if err != nil {
		return fmt.Errorf("failed to write data to stream: %w", err)
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
