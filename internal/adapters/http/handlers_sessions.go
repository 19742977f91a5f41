package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	verdict, ok := verdictFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	items, err := h.service.ListSessions(r.Context(), verdict.AdminID, verdict.SessionID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_sessions", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"sessions": items})
}

// terminateOtherSessions revokes everything except the session making the
// request.
func (h *Handler) terminateOtherSessions(w http.ResponseWriter, r *http.Request) {
	verdict, ok := verdictFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	revoked, err := h.service.TerminateOtherSessions(r.Context(), verdict.AdminID, verdict.SessionID)
	if err != nil {
		writeMappedError(r.Context(), w, "terminate_other_sessions", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"sessions_revoked": revoked})
}

func (h *Handler) terminateSession(w http.ResponseWriter, r *http.Request) {
	verdict, ok := verdictFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid session id")
		return
	}
	if err := h.service.TerminateSession(r.Context(), verdict.AdminID, sessionID); err != nil {
		writeMappedError(r.Context(), w, "terminate_session", err)
		return
	}
	if sessionID == verdict.SessionID {
		h.clearSessionCookie(w)
	}
	writeMessage(w, http.StatusOK, "session terminated")
}
