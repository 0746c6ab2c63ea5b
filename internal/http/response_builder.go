package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"autofin/internal/api"
	"autofin/internal/core"
	"autofin/internal/dashboard"
	"autofin/internal/log"
	"autofin/internal/services"
	"autofin/internal/session"
	"autofin/internal/storage"
)

var (
	errMalformedBody = errors.New("malformed request body")
	errInvalidParam  = errors.New("invalid parameter")
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldComponent, log.ComponentHTTP, log.FieldError, err)
	}
}

// statusFor maps a domain or infrastructure error to an HTTP status.
func statusFor(err error) int {
	var se *api.StatusError
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrEmptyRange), errors.Is(err, errInvalidParam),
		errors.Is(err, core.ErrEmptyCategory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, api.ErrDuplicateCategory):
		return http.StatusConflict
	case errors.Is(err, core.ErrConfigNotReady), errors.Is(err, services.ErrExportUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, dashboard.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrExportNotFound):
		return http.StatusNotFound
	case errors.As(err, &se):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the text clients see for err. Internal failures never
// leak their text.
func publicMessage(err error, status int) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusBadGateway:
		return "backend unavailable"
	case http.StatusUnauthorized:
		return "no active session"
	}
	return err.Error()
}

// writeError writes {"error": ...} with the status statusFor picks.
func writeError(w http.ResponseWriter, err error) int {
	status := statusFor(err)
	writeJSON(w, status, errorResponse{Error: publicMessage(err, status)})
	return status
}
