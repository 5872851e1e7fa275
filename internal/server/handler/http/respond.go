// Package http provides the JSON API surface: the response envelope, bearer
// authentication and the handlers for auth, books, borrowings and users.
package http

import (
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// successEnvelope is the uniform success shape.
type successEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// errorEnvelope is the uniform error shape.
type errorEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// validationEnvelope carries field-keyed validation messages.
type validationEnvelope struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors"`
	Timestamp string            `json:"timestamp"`
}

func stamp() string { return time.Now().UTC().Format(time.RFC3339) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Success writes the success envelope with the given status code.
func Success(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, successEnvelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: stamp(),
	})
}

// Error writes the error envelope with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{
		Success:   false,
		Message:   message,
		Timestamp: stamp(),
	})
}

// ValidationFailed writes the validation envelope with status 400.
func ValidationFailed(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, validationEnvelope{
		Success:   false,
		Message:   "Validation Error",
		Errors:    fields,
		Timestamp: stamp(),
	})
}

// NotFound writes the not-found envelope for the named resource.
func NotFound(w http.ResponseWriter, resource string) {
	writeJSON(w, http.StatusNotFound, errorEnvelope{
		Success:   false,
		Message:   resource + " not found",
		Timestamp: stamp(),
	})
}
