package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

// CsrfTokenRepository persists one-time CSRF tokens. Consumption is a
// conditional update; the database guarantees at most one winner when the
// same value is presented concurrently.
type CsrfTokenRepository struct {
	db *gorm.DB
}

var _ ports.CsrfTokenRepository = (*CsrfTokenRepository)(nil)

func (r *CsrfTokenRepository) Create(ctx context.Context, token domain.CsrfToken) error {
	m := csrfTokenModel{
		TokenHash: token.TokenHash,
		SessionID: token.SessionID,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

// Consume flips used_at exactly once, fetching the row via RETURNING in the
// same statement so a concurrent purge cannot fail a won consume. When the
// update affects no row, a follow-up lookup distinguishes missing, expired
// and already-used so the caller can log the precise reason while the client
// sees a generic 403.
func (r *CsrfTokenRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (domain.CsrfToken, error) {
	var m csrfTokenModel
	res := r.db.WithContext(ctx).
		Model(&m).
		Clauses(clause.Returning{}).
		Where("token_hash = ?", tokenHash).
		Where("used_at IS NULL").
		Where("expires_at > ?", now).
		Update("used_at", now)
	if res.Error != nil {
		return domain.CsrfToken{}, res.Error
	}
	if res.RowsAffected == 0 {
		var stale csrfTokenModel
		err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&stale).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return domain.CsrfToken{}, domain.ErrCsrfMissing
		case err != nil:
			return domain.CsrfToken{}, err
		case stale.UsedAt != nil:
			return domain.CsrfToken{}, domain.ErrCsrfUsed
		default:
			return domain.CsrfToken{}, domain.ErrCsrfExpired
		}
	}
	return toDomainCsrfToken(m), nil
}

func (r *CsrfTokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ? OR used_at IS NOT NULL", now).
		Delete(&csrfTokenModel{})
	return res.RowsAffected, res.Error
}
