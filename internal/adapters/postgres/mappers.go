package postgres

import "github.com/brightpath-studio/backoffice/internal/domain"

func toDomainAdmin(m adminUserModel) domain.AdminUser {
	return domain.AdminUser{
		AdminID:             m.AdminID,
		Username:            m.Username,
		PasswordHash:        m.PasswordHash,
		Role:                m.Role,
		TokenVersion:        m.TokenVersion,
		ForcePasswordChange: m.ForcePasswordChange,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func toDomainSession(m sessionModel) domain.Session {
	return domain.Session{
		SessionID:      m.SessionID,
		AdminID:        m.AdminID,
		TokenHash:      m.TokenHash,
		IPHash:         m.IPHash,
		DeviceHash:     m.DeviceHash,
		UserAgent:      m.UserAgent,
		CreatedAt:      m.CreatedAt,
		LastActivityAt: m.LastActivityAt,
		ExpiresAt:      m.ExpiresAt,
	}
}

func toDomainCsrfToken(m csrfTokenModel) domain.CsrfToken {
	return domain.CsrfToken{
		TokenHash: m.TokenHash,
		SessionID: m.SessionID,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
		UsedAt:    m.UsedAt,
	}
}
