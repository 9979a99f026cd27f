package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/validate"
)

// Pagination describes the page window of a list response. TotalPages is
// derived from the total match count, not from the rows returned.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// envelope is the uniform JSON response shape. Success responses carry
// data and optionally a message; failures carry only an error string
// (plus field details for validation failures).
type envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ResponseBuilder assembles an envelope fluently before writing it.
type ResponseBuilder struct {
	status int
	env    envelope
}

// OK starts a 200 success response.
func OK() *ResponseBuilder {
	return &ResponseBuilder{status: http.StatusOK, env: envelope{Success: true}}
}

// Created starts a 201 success response.
func Created() *ResponseBuilder {
	return &ResponseBuilder{status: http.StatusCreated, env: envelope{Success: true}}
}

// Fail starts an error response with the given status and public message.
func Fail(status int, message string) *ResponseBuilder {
	return &ResponseBuilder{status: status, env: envelope{Error: message}}
}

// Data attaches the response payload.
func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.env.Data = v
	return b
}

// Message attaches a human-readable outcome message.
func (b *ResponseBuilder) Message(m string) *ResponseBuilder {
	b.env.Message = m
	return b
}

// Paginate attaches pagination metadata for a list response.
func (b *ResponseBuilder) Paginate(page, limit int, total int64) *ResponseBuilder {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	b.env.Pagination = &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
	return b
}

// Write serializes the envelope to the response.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.status)
	if err := json.NewEncoder(w).Encode(b.env); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// Public error messages. Internal detail never reaches the client; the
// 404 message is the same whether the row is absent or foreign-owned.
const (
	msgUnauthorized = "Please log in to access this resource"
	msgNotFound     = "Resource not found"
	msgConflict     = "A category with this name and type already exists"
	msgInternal     = "Internal server error"
	msgRateLimited  = "Rate limit exceeded. Please try again later."
)

// writeError is the single place where domain errors become HTTP
// responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs *validate.Errors
	switch {
	case errors.As(err, &verrs):
		Fail(http.StatusBadRequest, "Validation failed").Data(verrs.Fields).Write(w)
	case errors.Is(err, core.ErrTypeMismatch):
		Fail(http.StatusBadRequest, core.ErrTypeMismatch.Error()).Write(w)
	case errors.Is(err, auth.ErrUnauthenticated):
		Fail(http.StatusUnauthorized, msgUnauthorized).Write(w)
	case errors.Is(err, core.ErrNotFound):
		Fail(http.StatusNotFound, msgNotFound).Write(w)
	case errors.Is(err, core.ErrConflict):
		Fail(http.StatusConflict, msgConflict).Write(w)
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		Fail(http.StatusInternalServerError, msgInternal).Write(w)
	}
}
