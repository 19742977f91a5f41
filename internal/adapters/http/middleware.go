package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-studio/backoffice/internal/application"
	"github.com/brightpath-studio/backoffice/internal/domain"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyTokenRaw  ctxKey = "token_raw"
	ctxKeyVerdict   ctxKey = "session_verdict"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpLogger().ErrorContext(r.Context(), "panic recovered",
					"operation", "http_panic_recovery",
					"outcome", "failure",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		outcome := "success"
		if statusCode >= 400 {
			outcome = "failure"
		}

		fields := []any{
			"operation", "http_request",
			"outcome", outcome,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		}
		switch {
		case statusCode >= 500:
			httpLogger().ErrorContext(r.Context(), "http request completed", fields...)
		case statusCode >= 400:
			httpLogger().WarnContext(r.Context(), "http request completed", fields...)
		default:
			httpLogger().InfoContext(r.Context(), "http request completed", fields...)
		}
	})
}

// sessionMiddleware authenticates the request through the session
// validator. On NeedsRenewal it re-issues the cookie transparently and the
// request proceeds as valid.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := h.readSessionCookie(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		verdict, err := h.service.ValidateSession(r.Context(), raw, clientContext(r))
		if err != nil {
			writeMappedError(r.Context(), w, "validate_session", err)
			return
		}
		if !verdict.Authenticated() {
			h.clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		if verdict.State == domain.VerdictNeedsRenewal {
			h.setSessionCookie(w, verdict.NewToken, verdict.NewExpiry)
			raw = verdict.NewToken
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, ctxKeyTokenRaw, raw)
		ctx = context.WithValue(ctx, ctxKeyVerdict, verdict)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// csrfMiddleware consumes the one-time token from X-Csrf-Token. Every
// mutating admin route sits behind it; the precise failure reason stays in
// the server log.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verdict, ok := verdictFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		if err := h.service.ValidateCsrfToken(r.Context(), verdict.SessionID, r.Header.Get("X-Csrf-Token")); err != nil {
			writeMappedError(r.Context(), w, "validate_csrf", err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func verdictFromContext(ctx context.Context) (domain.SessionVerdict, bool) {
	v, ok := ctx.Value(ctxKeyVerdict).(domain.SessionVerdict)
	return v, ok
}

func tokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyTokenRaw).(string)
	return v, ok
}

func clientContext(r *http.Request) application.ClientContext {
	return application.ClientContext{
		IP:        readIP(r),
		UserAgent: r.UserAgent(),
	}
}
