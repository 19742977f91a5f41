package http

import (
	"net/http"

	"github.com/brightpath-studio/backoffice/internal/application"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	res, err := h.service.Login(r.Context(), application.LoginRequest{
		Username: body.Username,
		Password: body.Password,
		Client:   clientContext(r),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "login", err)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeSuccess(w, http.StatusOK, map[string]any{
		"session_id":            res.SessionID,
		"expires_at":            res.ExpiresAt,
		"force_password_change": res.ForcePasswordChange,
	})
}

// sessionInfo reports the authenticated state of the current request. The
// session middleware has already handled transparent renewal by the time
// this runs.
func (h *Handler) sessionInfo(w http.ResponseWriter, r *http.Request) {
	verdict, ok := verdictFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"admin": map[string]any{
			"admin_id": verdict.AdminID,
			"username": verdict.Username,
			"role":     verdict.Role,
		},
		"needs_renewal":         verdict.NewToken != "",
		"time_left_seconds":     int64(verdict.TimeLeft.Seconds()),
		"force_password_change": verdict.ForcePasswordChange,
	})
}

func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	verdict, ok := verdictFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	res, err := h.service.IssueCsrfToken(r.Context(), verdict.SessionID)
	if err != nil {
		writeMappedError(r.Context(), w, "issue_csrf_token", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"csrf_token": res.Token,
		"expires_at": res.ExpiresAt,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	raw, ok := tokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	if err := h.service.Logout(r.Context(), raw); err != nil {
		writeMappedError(r.Context(), w, "logout", err)
		return
	}
	h.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "logged out")
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	verdict, ok := verdictFromContext(r.Context())
	raw, okToken := tokenFromContext(r.Context())
	if !ok || !okToken {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	res, err := h.service.ChangePassword(r.Context(), verdict, raw, application.PasswordChangeRequest{
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	}, clientContext(r))
	if err != nil {
		writeMappedError(r.Context(), w, "change_password", err)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeSuccess(w, http.StatusOK, map[string]any{
		"sessions_revoked": res.SessionsRevoked,
		"expires_at":       res.ExpiresAt,
	})
}
