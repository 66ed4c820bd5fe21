package handler

// RESPONSE HELPERS:
// Every success carries the same envelope:
//
//	{"statusCode": 200, "data": {...}, "message": "...", "success": true}
//
// and every failure the same error shape:
//
//	{"message": "title is required", "errors": [{"field": "title", "message": "title is required"}]}
//
// so the frontend always knows which fields to expect.

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/sakif/openart/internal/apperror"
)

// Response is the success envelope.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the error shape. Errors is never null.
type ErrorResponse struct {
	Message string                `json:"message"`
	Errors  []apperror.FieldError `json:"errors"`
}

// writeJSON sends body with status. Headers must be set before WriteHeader.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already out; all we can do is log.
		slog.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// respond wraps data in the success envelope.
func respond(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// StatusOf maps an error to its HTTP status. Errors outside the apperror
// taxonomy are 500.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError is the centralized error responder. Typed application errors
// are sent with their message and field details; anything else is logged
// and answered with a generic 500 so driver messages never leak.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Message: "An internal error occurred",
			Errors:  []apperror.FieldError{},
		})
		return
	}

	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error("upstream failure", slog.String("message", appErr.Message), slog.Any("error", err))
	}
	writeJSON(w, status, ErrorResponse{
		Message: appErr.Message,
		Errors:  appErr.Fields(),
	})
}

// NotFound answers unmatched routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Message: "Route not found",
		Errors:  []apperror.FieldError{},
	})
}

// MethodNotAllowed answers a known route hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Message: "Method not allowed",
		Errors:  []apperror.FieldError{},
	})
}
