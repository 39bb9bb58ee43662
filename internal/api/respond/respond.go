// Package respond writes the JSON bodies of the aliasd API. Errors use
// RFC 7807 problem documents.
package respond

import (
	"encoding/json"
	"net/http"
)

// ProblemContentType is the media type of error bodies.
const ProblemContentType = "application/problem+json"

// Problem is an RFC 7807 problem document. Type is always "about:blank", so
// Title is the reason phrase of Status.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Error writes a problem for status.
func Error(w http.ResponseWriter, status int, detail string) {
	write(w, status, ProblemContentType, Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	write(w, status, "application/json", v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

func write(w http.ResponseWriter, status int, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
