package memory

import (
	"context"
	"sync"
	"time"

	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

// CsrfTokenRepository stores one-time CSRF tokens. Consume holds the mutex
// for the full check-and-set so concurrent presenters of the same value get
// exactly one success.
type CsrfTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.CsrfToken
}

func NewCsrfTokenRepository() *CsrfTokenRepository {
	return &CsrfTokenRepository{tokens: make(map[string]domain.CsrfToken)}
}

var _ ports.CsrfTokenRepository = (*CsrfTokenRepository)(nil)

func (r *CsrfTokenRepository) Create(_ context.Context, token domain.CsrfToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokens[token.TokenHash]; exists {
		return domain.ErrConflict
	}
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *CsrfTokenRepository) Consume(_ context.Context, tokenHash string, now time.Time) (domain.CsrfToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok {
		return domain.CsrfToken{}, domain.ErrCsrfMissing
	}
	if t.UsedAt != nil {
		return domain.CsrfToken{}, domain.ErrCsrfUsed
	}
	if !t.ExpiresAt.After(now) {
		return domain.CsrfToken{}, domain.ErrCsrfExpired
	}
	used := now
	t.UsedAt = &used
	r.tokens[tokenHash] = t
	return t, nil
}

func (r *CsrfTokenRepository) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for hash, t := range r.tokens {
		if !t.ExpiresAt.After(now) || t.UsedAt != nil {
			delete(r.tokens, hash)
			removed++
		}
	}
	return removed, nil
}
