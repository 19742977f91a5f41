package ports

import (
	"time"

	"github.com/google/uuid"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthClaims is the payload carried inside a signed session token. The
// binding hashes tie the token to the client it was issued to; the token
// version ties it to the credential generation it was minted under.
type AuthClaims struct {
	AdminID      uuid.UUID `json:"admin_id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	TokenVersion int       `json:"token_version"`
	IPHash       string    `json:"ip_hash"`
	DeviceHash   string    `json:"device_hash"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenCodec signs and verifies session tokens. Verify is purely
// cryptographic/structural: it never consults the session store, and it
// distinguishes domain.ErrTokenSignature from domain.ErrTokenExpired so
// the validator can map them to distinct terminal states.
type TokenCodec interface {
	Issue(claims AuthClaims) (string, error)
	Verify(token string) (AuthClaims, error)
}

// Fingerprinter reduces raw client identity signals to keyed hashes so
// the database never stores a raw IP or user agent.
type Fingerprinter interface {
	HashIP(ip string) string
	HashDevice(userAgent string) string
}
