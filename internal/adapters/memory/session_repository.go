package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

// SessionRepository stores sessions keyed by token hash.
type SessionRepository struct {
	mu     sync.Mutex
	byHash map[string]domain.Session
	byID   map[uuid.UUID]string
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		byHash: make(map[string]domain.Session),
		byID:   make(map[uuid.UUID]string),
	}
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) Create(_ context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byHash[params.TokenHash]; exists {
		return domain.Session{}, domain.ErrConflict
	}
	s := domain.Session{
		SessionID:      uuid.New(),
		AdminID:        params.AdminID,
		TokenHash:      params.TokenHash,
		IPHash:         params.IPHash,
		DeviceHash:     params.DeviceHash,
		UserAgent:      params.UserAgent,
		CreatedAt:      params.LastActivityAt,
		LastActivityAt: params.LastActivityAt,
		ExpiresAt:      params.ExpiresAt,
	}
	r.byHash[s.TokenHash] = s
	r.byID[s.SessionID] = s.TokenHash
	return s, nil
}

func (r *SessionRepository) GetByTokenHash(_ context.Context, tokenHash string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byHash[tokenHash]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, nil
}

func (r *SessionRepository) ListForAdmin(_ context.Context, adminID uuid.UUID) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sessions []domain.Session
	for _, s := range r.byHash {
		if s.AdminID == adminID {
			sessions = append(sessions, s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivityAt.After(sessions[j].LastActivityAt)
	})
	return sessions, nil
}

func (r *SessionRepository) Renew(_ context.Context, tokenHash, newTokenHash string, newExpiry, touchedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byHash[tokenHash]
	if !ok {
		return domain.ErrNotFound
	}
	if _, taken := r.byHash[newTokenHash]; taken {
		return domain.ErrConflict
	}
	delete(r.byHash, tokenHash)
	s.TokenHash = newTokenHash
	s.ExpiresAt = newExpiry
	s.LastActivityAt = touchedAt
	r.byHash[newTokenHash] = s
	r.byID[s.SessionID] = newTokenHash
	return nil
}

func (r *SessionRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byHash[tokenHash]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byHash, tokenHash)
	delete(r.byID, s.SessionID)
	return nil
}

func (r *SessionRepository) DeleteByID(_ context.Context, adminID, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	hash, ok := r.byID[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s := r.byHash[hash]
	if s.AdminID != adminID {
		return domain.ErrNotFound
	}
	delete(r.byHash, hash)
	delete(r.byID, sessionID)
	return nil
}

func (r *SessionRepository) DeleteAllForAdmin(_ context.Context, adminID uuid.UUID, exceptSessionID *uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for hash, s := range r.byHash {
		if s.AdminID != adminID {
			continue
		}
		if exceptSessionID != nil && s.SessionID == *exceptSessionID {
			continue
		}
		delete(r.byHash, hash)
		delete(r.byID, s.SessionID)
		removed++
	}
	return removed, nil
}

func (r *SessionRepository) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for hash, s := range r.byHash {
		if !s.ExpiresAt.After(now) {
			delete(r.byHash, hash)
			delete(r.byID, s.SessionID)
			removed++
		}
	}
	return removed, nil
}
