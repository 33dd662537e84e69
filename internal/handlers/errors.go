package handlers

import (
	"errors"
	"net/http"

	"github.com/adrijusxx/truckpay/internal/httpx"
	"github.com/adrijusxx/truckpay/internal/services"
)

// writeServiceError maps the service error classes onto status codes so
// callers can tell "nothing to do" (409) apart from bad input (400), a
// missing entity (404) and a real failure (500).
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrConflict):
		httpx.JSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, services.ErrValidation):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
