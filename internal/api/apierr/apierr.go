// Package apierr writes HTTP error responses in the machine-readable
// format every endpoint shares: {"error": {"code": "...", "message": "..."}}.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/docforgehq/docforge/internal/docgen"
)

// Machine-readable error codes.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeConflict            = "CONFLICT"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Write emits an error response with the given status, code, and message.
func Write(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{Code: code, Message: message},
	})
}

// ValidationError writes a 400.
func ValidationError(w http.ResponseWriter, message string) {
	Write(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message string) {
	Write(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, message string) {
	Write(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Conflict writes a 409.
func Conflict(w http.ResponseWriter, message string) {
	Write(w, http.StatusConflict, CodeConflict, message)
}

// UpstreamUnavailable writes a 502.
func UpstreamUnavailable(w http.ResponseWriter, message string) {
	Write(w, http.StatusBadGateway, CodeUpstreamUnavailable, message)
}

// InternalError writes a 500.
func InternalError(w http.ResponseWriter, message string) {
	Write(w, http.StatusInternalServerError, CodeInternalError, message)
}

// FromError maps a pipeline error onto the taxonomy: invalid argument to
// 400, not found to 404, upstream unavailable to 502, anything else to 500.
func FromError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, docgen.ErrInvalidArgument):
		ValidationError(w, err.Error())
	case errors.Is(err, docgen.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, docgen.ErrUpstreamUnavailable):
		UpstreamUnavailable(w, err.Error())
	default:
		InternalError(w, "internal server error")
	}
}
