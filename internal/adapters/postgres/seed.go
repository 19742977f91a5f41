package postgres

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// SeedAdmin inserts the initial admin account when admin_users is empty.
// The seeded account must change its password on first login.
func SeedAdmin(ctx context.Context, db *gorm.DB, username, passwordHash string) error {
	var count int64
	if err := db.WithContext(ctx).Model(&adminUserModel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	m := adminUserModel{
		Username:            username,
		PasswordHash:        passwordHash,
		Role:                "ADMIN",
		TokenVersion:        1,
		ForcePasswordChange: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	slog.Default().InfoContext(ctx, "seed admin created",
		"module", "postgres",
		"layer", "adapter",
		"operation", "seed_admin",
		"outcome", "success",
		"username", username,
	)
	return nil
}
