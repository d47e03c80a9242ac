// Package httputil holds the JSON response envelope and error writers used
// by every HTTP handler.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/prismcart/search/pkg/errors"
	"github.com/prismcart/search/pkg/logger"
	pkgvalidator "github.com/prismcart/search/pkg/validator"
)

// Response is the uniform envelope: exactly one of Data or Error is set.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the wire shape of a failed request.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// PaginatedResponse wraps a page of items with paging metadata.
type PaginatedResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginatedResponse computes total_pages with ceiling division.
func NewPaginatedResponse[T any](items []T, total int64, page, pageSize int) PaginatedResponse[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginatedResponse[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// WriteJSON writes data inside the envelope with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Data: data}); err != nil {
		slog.Error("encode response", slog.String("error", err.Error()))
	}
}

// WriteError maps err to a status via the application error taxonomy and
// writes the error envelope. Internal causes are logged, not exposed.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)

	var verr *pkgvalidator.ValidationError
	if errors.As(err, &verr) {
		writeErrorBody(w, r, http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_FAILED",
			Message: "request validation failed",
			Fields:  verr.Fields(),
		})
		return
	}

	// Only a plain 500 hides its cause; 503 and friends carry codes the
	// client is meant to act on.
	code := "INTERNAL"
	message := "internal server error"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status != http.StatusInternalServerError {
		code = appErr.Code
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
	}
	writeErrorBody(w, r, status, ErrorResponse{Code: code, Message: message})
}

// WriteBadRequest writes a 400 with an explicit code and message, for
// query-parameter parse failures.
func WriteBadRequest(w http.ResponseWriter, r *http.Request, code, message string) {
	writeErrorBody(w, r, http.StatusBadRequest, ErrorResponse{Code: code, Message: message})
}

func writeErrorBody(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	body.RequestID = logger.CorrelationID(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Error: &body}); err != nil {
		slog.Error("encode error response", slog.String("error", err.Error()))
	}
}
