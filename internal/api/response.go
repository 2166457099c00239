package api

import (
	"encoding/json"
	"net/http"
)

// Response represents a standard API response.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error codes
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeInvalidYear   = "INVALID_YEAR"
	CodeInvalidOffset = "INVALID_OFFSET"
	CodeInvalidFormat = "INVALID_FORMAT"
	CodeNotFound      = "NOT_FOUND"
	CodeUnknownEvent  = "UNKNOWN_EVENT"
	CodeInternal      = "INTERNAL_ERROR"
	CodeImplausible   = "IMPLAUSIBLE_SOLSTICE"
	CodeUnhealthy     = "HEALTH_CHECK_FAILED"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, status int, message string, code ...string) error {
	errInfo := ErrorInfo{
		Message: message,
	}
	if len(code) > 0 {
		errInfo.Code = code[0]
	}

	return WriteJSON(w, status, Response{
		Success: false,
		Error:   &errInfo,
	})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string, code ...string) error {
	if len(code) == 0 {
		code = []string{CodeNotFound}
	}
	return WriteError(w, http.StatusNotFound, message, code...)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, code ...string) error {
	if len(code) == 0 {
		code = []string{CodeBadRequest}
	}
	return WriteError(w, http.StatusBadRequest, message, code...)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, message, CodeInternal)
}
