// Package handlers implements the HTTP handlers over the search engine.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mnohosten/paperfind/pkg/engine"
)

// Handlers holds the engine instance behind every endpoint.
type Handlers struct {
	eng *engine.Engine
}

// New creates a Handlers instance.
func New(eng *engine.Engine) *Handlers {
	return &Handlers{eng: eng}
}

// parseJSONBody parses a JSON request body into target.
func parseJSONBody(r *http.Request, target interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return &BadRequestError{Message: "failed to read request body"}
	}
	defer r.Body.Close()

	if len(body) == 0 {
		return &BadRequestError{Message: "request body is empty"}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return &BadRequestError{Message: "invalid JSON: " + err.Error()}
	}

	return nil
}

// Error types for consistent error responses

type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return e.Message
}

// writeError maps an error to an HTTP status and a JSON error body.
func writeError(w http.ResponseWriter, err error) {
	var statusCode int
	var errorType string
	var message string

	var badRequest *BadRequestError
	var notFound *NotFoundError

	switch {
	case errors.Is(err, engine.ErrEmptyQuery):
		statusCode = http.StatusBadRequest
		errorType = "EmptyQuery"
		message = "no query provided"
	case errors.Is(err, engine.ErrMissingField):
		statusCode = http.StatusBadRequest
		errorType = "MissingField"
		message = err.Error()
	case errors.As(err, &badRequest):
		statusCode = http.StatusBadRequest
		errorType = "BadRequest"
		message = badRequest.Message
	case errors.As(err, &notFound):
		statusCode = http.StatusNotFound
		errorType = "NotFound"
		message = notFound.Message
	default:
		statusCode = http.StatusInternalServerError
		errorType = "InternalError"
		message = err.Error()
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"error": map[string]string{
			"type":    errorType,
			"message": message,
		},
	})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
