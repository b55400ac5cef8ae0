// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error     string `json:"error"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", slog.String("error", err.Error()))
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondDomainError maps service errors onto status codes. Anything that is
// not a caller mistake is logged and answered with a generic 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	var (
		validationErr   *domain.ValidationError
		notFoundErr     *domain.NotFoundError
		insufficientErr *domain.InsufficientStockError
	)

	switch {
	case errors.As(err, &insufficientErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:     insufficientErr.Error(),
			Available: &insufficientErr.Available,
			Requested: &insufficientErr.Requested,
		})
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &notFoundErr):
		respondError(w, http.StatusNotFound, notFoundErr.Error())
	default:
		logger.ErrorContext(r.Context(), fallback,
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads a single JSON object from the request body
func decodeJSON(r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return validationErr
		}
		return domain.NewValidationError("", "Invalid request body")
	}
	return nil
}
