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

// AdminRepository persists admin identities in admin_users.
type AdminRepository struct {
	db *gorm.DB
}

var _ ports.AdminRepository = (*AdminRepository)(nil)

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (domain.AdminUser, error) {
	var m adminUserModel
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AdminUser{}, domain.ErrNotFound
		}
		return domain.AdminUser{}, err
	}
	return toDomainAdmin(m), nil
}

func (r *AdminRepository) GetByID(ctx context.Context, adminID uuid.UUID) (domain.AdminUser, error) {
	var m adminUserModel
	err := r.db.WithContext(ctx).Where("admin_id = ?", adminID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AdminUser{}, domain.ErrNotFound
		}
		return domain.AdminUser{}, err
	}
	return toDomainAdmin(m), nil
}

func (r *AdminRepository) UpdatePassword(ctx context.Context, adminID uuid.UUID, passwordHash string, updatedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&adminUserModel{}).
		Where("admin_id = ?", adminID).
		Updates(map[string]any{
			"password_hash":         passwordHash,
			"force_password_change": false,
			"updated_at":            updatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// BumpTokenVersion atomically increments the counter and returns the new
// value; tokens carrying an older version become invalid on next use.
func (r *AdminRepository) BumpTokenVersion(ctx context.Context, adminID uuid.UUID, updatedAt time.Time) (int, error) {
	var version int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&adminUserModel{}).
			Where("admin_id = ?", adminID).
			Updates(map[string]any{
				"token_version": gorm.Expr("token_version + 1"),
				"updated_at":    updatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		var m adminUserModel
		if err := tx.Select("token_version").Where("admin_id = ?", adminID).First(&m).Error; err != nil {
			return err
		}
		version = m.TokenVersion
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}
