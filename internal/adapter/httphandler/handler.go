package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/niksmo/prime-house/internal/core/domain"
)

var errInvalidJSON = errors.New("invalid JSON data")

func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return err
	}
	return fmt.Errorf("%w: %w", errInvalidJSON, err)
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

// statusFor maps known errors to a status code, anything else gets fallback.
func statusFor(err error, fallback int) int {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe), errors.Is(err, domain.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errInvalidJSON),
		errors.Is(err, domain.ErrImageRequired),
		errors.Is(err, domain.ErrInvalidProperty),
		errors.Is(err, domain.ErrLeadRequiredFields):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrPropertyNotFound):
		return http.StatusNotFound
	default:
		return fallback
	}
}

func messageFor(err error, status int) string {
	switch status {
	case http.StatusRequestEntityTooLarge:
		return domain.ErrDocumentTooLarge.Error()
	case http.StatusBadRequest:
		for _, target := range []error{
			errInvalidJSON,
			domain.ErrImageRequired,
			domain.ErrInvalidProperty,
			domain.ErrLeadRequiredFields,
		} {
			if errors.Is(err, target) {
				return target.Error()
			}
		}
	case http.StatusUnauthorized:
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return domain.ErrInvalidCredentials.Error()
		}
		return domain.ErrUnauthenticated.Error()
	case http.StatusForbidden:
		return domain.ErrAccessDenied.Error()
	case http.StatusNotFound:
		return domain.ErrPropertyNotFound.Error()
	}
	return http.StatusText(status)
}

// writeError responds with ErrorResponse. Internal details never leave the
// server, they are only logged.
func writeError(
	w http.ResponseWriter, log *slog.Logger, err error, fallback int,
) {
	status := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "err", err)
	} else {
		log.Warn("request rejected", "status", status, "err", err)
	}
	writeJSON(w, log, status, ErrorResponse{messageFor(err, status)})
}
