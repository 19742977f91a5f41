package postgres

import (
	"gorm.io/gorm"

	"github.com/brightpath-studio/backoffice/internal/ports"
)

// Repositories bundles every Postgres-backed store behind the port
// interfaces so bootstrap wires a single value.
type Repositories struct {
	Admins   ports.AdminRepository
	Sessions ports.SessionRepository
	Lockouts ports.LockoutRepository
	Csrf     ports.CsrfTokenRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Admins:   &AdminRepository{db: db},
		Sessions: &SessionRepository{db: db},
		Lockouts: &LockoutRepository{db: db},
		Csrf:     &CsrfTokenRepository{db: db},
	}
}
