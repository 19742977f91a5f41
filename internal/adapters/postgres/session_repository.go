package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

// SessionRepository persists login sessions keyed by token hash.
type SessionRepository struct {
	db *gorm.DB
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) Create(ctx context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	m := sessionModel{
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
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Session{}, domain.ErrConflict
		}
		return domain.Session{}, err
	}
	return toDomainSession(m), nil
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	var m sessionModel
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, err
	}
	return toDomainSession(m), nil
}

func (r *SessionRepository) ListForAdmin(ctx context.Context, adminID uuid.UUID) ([]domain.Session, error) {
	var models []sessionModel
	err := r.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("last_activity_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	sessions := make([]domain.Session, 0, len(models))
	for _, m := range models {
		sessions = append(sessions, toDomainSession(m))
	}
	return sessions, nil
}

// Renew rotates the token hash in place. Last write wins under concurrent
// renewals of the same session; the losing request's new token simply never
// matches a row and that client re-authenticates.
func (r *SessionRepository) Renew(ctx context.Context, tokenHash, newTokenHash string, newExpiry, touchedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("token_hash = ?", tokenHash).
		Updates(map[string]any{
			"token_hash":       newTokenHash,
			"expires_at":       newExpiry,
			"last_activity_at": touchedAt,
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	res := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&sessionModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByID scopes the delete by admin so one admin cannot revoke another
// admin's session by guessing identifiers.
func (r *SessionRepository) DeleteByID(ctx context.Context, adminID, sessionID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("admin_id = ? AND session_id = ?", adminID, sessionID).
		Delete(&sessionModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteAllForAdmin(ctx context.Context, adminID uuid.UUID, exceptSessionID *uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).Where("admin_id = ?", adminID)
	if exceptSessionID != nil {
		q = q.Where("session_id <> ?", *exceptSessionID)
	}
	res := q.Delete(&sessionModel{})
	return res.RowsAffected, res.Error
}

func (r *SessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&sessionModel{})
	return res.RowsAffected, res.Error
}
