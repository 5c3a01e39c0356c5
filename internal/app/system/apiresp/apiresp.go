// Package apiresp writes JSON responses and decodes JSON request bodies for the
// /api routes.
package apiresp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrorBody is the envelope for every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// Error writes {"error": msg} with the given status code.
func Error(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = strings.ToLower(http.StatusText(status))
	}
	JSON(w, status, ErrorBody{Error: msg})
}

func BadRequest(w http.ResponseWriter, msg string) { Error(w, http.StatusBadRequest, msg) }
func NotFound(w http.ResponseWriter, msg string)   { Error(w, http.StatusNotFound, msg) }
func Conflict(w http.ResponseWriter, msg string)   { Error(w, http.StatusConflict, msg) }
func Forbidden(w http.ResponseWriter, msg string)  { Error(w, http.StatusForbidden, msg) }

// Internal writes a generic 500; the cause must be logged by the caller.
func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Decode reads a JSON body into dst. Unknown fields are rejected and the
// body is limited to MaxBodyBytes.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &mbe):
			return fmt.Errorf("request body exceeds %d bytes", mbe.Limit)
		default:
			return fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
