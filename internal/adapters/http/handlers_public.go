package http

import (
	"net/http"
	"strconv"
	"strings"
)

// contact accepts a public contact-form submission, throttled per source
// IP. It exists on the public surface so unauthenticated abuse never
// reaches the admin auth paths.
func (h *Handler) contact(w http.ResponseWriter, r *http.Request) {
	decision, err := h.service.ThrottleContact(r.Context(), readIP(r))
	if err != nil {
		writeMappedError(r.Context(), w, "contact", err)
		return
	}
	if !decision.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())+1))
		writeError(w, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "too many attempts, try again later")
		return
	}

	var body struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "message is required")
		return
	}

	httpLogger().InfoContext(r.Context(), "contact submission accepted",
		"operation", "contact",
		"outcome", "success",
		"request_id", requestIDFromContext(r.Context()),
		"remaining", decision.Remaining,
	)
	writeMessage(w, http.StatusAccepted, "message received")
}
