package postgres

import (
	"time"

	"github.com/google/uuid"
)

type adminUserModel struct {
	AdminID             uuid.UUID `gorm:"column:admin_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username            string    `gorm:"column:username;uniqueIndex"`
	PasswordHash        string    `gorm:"column:password_hash"`
	Role                string    `gorm:"column:role"`
	TokenVersion        int       `gorm:"column:token_version"`
	ForcePasswordChange bool      `gorm:"column:force_password_change"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (adminUserModel) TableName() string { return "admin_users" }

type sessionModel struct {
	SessionID      uuid.UUID `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey"`
	AdminID        uuid.UUID `gorm:"column:admin_id;type:uuid;index"`
	TokenHash      string    `gorm:"column:token_hash;uniqueIndex"`
	IPHash         string    `gorm:"column:ip_hash"`
	DeviceHash     string    `gorm:"column:device_hash"`
	UserAgent      string    `gorm:"column:user_agent"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	LastActivityAt time.Time `gorm:"column:last_activity_at"`
	ExpiresAt      time.Time `gorm:"column:expires_at;index"`
}

func (sessionModel) TableName() string { return "admin_sessions" }

type failedLoginModel struct {
	Identifier   string     `gorm:"column:identifier;primaryKey"`
	AttemptCount int        `gorm:"column:attempt_count"`
	WindowStart  time.Time  `gorm:"column:window_start"`
	LockedUntil  *time.Time `gorm:"column:locked_until"`
	LockoutCount int        `gorm:"column:lockout_count"`
}

func (failedLoginModel) TableName() string { return "failed_logins" }

type csrfTokenModel struct {
	TokenHash string     `gorm:"column:token_hash;primaryKey"`
	SessionID uuid.UUID  `gorm:"column:session_id;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	ExpiresAt time.Time  `gorm:"column:expires_at;index"`
	UsedAt    *time.Time `gorm:"column:used_at"`
}

func (csrfTokenModel) TableName() string { return "csrf_tokens" }
