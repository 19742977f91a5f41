package application

import (
	"context"

	"github.com/google/uuid"
)

// ListSessions returns the admin's active sessions, flagging the one the
// request rode in on.
func (s *Service) ListSessions(ctx context.Context, adminID, currentSessionID uuid.UUID) ([]SessionItem, error) {
	sessions, err := s.sessions.ListForAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	items := make([]SessionItem, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, SessionItem{
			SessionID:      sess.SessionID,
			Current:        sess.SessionID == currentSessionID,
			UserAgent:      sess.UserAgent,
			CreatedAt:      sess.CreatedAt,
			LastActivityAt: sess.LastActivityAt,
			ExpiresAt:      sess.ExpiresAt,
		})
	}
	return items, nil
}

// TerminateOtherSessions revokes every session except the caller's own.
func (s *Service) TerminateOtherSessions(ctx context.Context, adminID, currentSessionID uuid.UUID) (int64, error) {
	return s.sessions.DeleteAllForAdmin(ctx, adminID, &currentSessionID)
}

// TerminateSession revokes one session by id, scoped to the calling admin.
// Revoking the current session is allowed and behaves like logout.
func (s *Service) TerminateSession(ctx context.Context, adminID, sessionID uuid.UUID) error {
	return s.sessions.DeleteByID(ctx, adminID, sessionID)
}
