package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/brightpath-studio/backoffice/internal/domain"
)

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func readIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host := strings.TrimSpace(r.RemoteAddr)
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

// mapDomainError collapses the auth failure taxonomy into the handful of
// generic client-facing responses. The specific sentinel is logged before
// the response is written, never echoed to the client.
func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials"
	case errors.Is(err, domain.ErrAccountLocked),
		errors.Is(err, domain.ErrIPLocked),
		errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "too many attempts, try again later"
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrTokenSignature),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrStaleTokenVersion),
		errors.Is(err, domain.ErrBindingMismatch),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "UNAUTHORIZED", "authentication required"
	case errors.Is(err, domain.ErrCsrfMissing),
		errors.Is(err, domain.ErrCsrfExpired),
		errors.Is(err, domain.ErrCsrfUsed),
		errors.Is(err, domain.ErrCsrfMismatch):
		return http.StatusForbidden, "FORBIDDEN", "request could not be authorized"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT", "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

func writeMappedError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	status, code, msg := mapDomainError(err)
	logHTTPOperationError(ctx, operation, status, code, msg, err)
	writeError(w, status, code, msg)
}
