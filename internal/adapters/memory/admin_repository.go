package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

// AdminRepository stores admin users in a mutex-guarded map.
type AdminRepository struct {
	mu     sync.Mutex
	admins map[uuid.UUID]domain.AdminUser
}

func NewAdminRepository() *AdminRepository {
	return &AdminRepository{admins: make(map[uuid.UUID]domain.AdminUser)}
}

var _ ports.AdminRepository = (*AdminRepository)(nil)

// Seed inserts or replaces an admin. Test and dev bootstrap helper.
func (r *AdminRepository) Seed(admin domain.AdminUser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admins[admin.AdminID] = admin
}

func (r *AdminRepository) GetByUsername(_ context.Context, username string) (domain.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Username == username {
			return a, nil
		}
	}
	return domain.AdminUser{}, domain.ErrNotFound
}

func (r *AdminRepository) GetByID(_ context.Context, adminID uuid.UUID) (domain.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[adminID]
	if !ok {
		return domain.AdminUser{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *AdminRepository) UpdatePassword(_ context.Context, adminID uuid.UUID, passwordHash string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[adminID]
	if !ok {
		return domain.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.ForcePasswordChange = false
	a.UpdatedAt = updatedAt
	r.admins[adminID] = a
	return nil
}

func (r *AdminRepository) BumpTokenVersion(_ context.Context, adminID uuid.UUID, updatedAt time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[adminID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	a.TokenVersion++
	a.UpdatedAt = updatedAt
	r.admins[adminID] = a
	return a.TokenVersion, nil
}
