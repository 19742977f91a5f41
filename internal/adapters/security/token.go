package security

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

// MinSecretLength is the minimum accepted HMAC secret size in bytes.
// A shorter secret is a fatal configuration error: the process must refuse
// to serve traffic rather than sign tokens with a weak key.
const MinSecretLength = 32

// HMACTokenCodec implements HS256 signing/verification for backoffice
// session tokens. The key is held at adapter level so the application
// layer stays crypto-library agnostic.
type HMACTokenCodec struct {
	secret []byte
}

// NewHMACTokenCodec builds a codec from the configured signing secret.
func NewHMACTokenCodec(secret string) (*HMACTokenCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}
	return &HMACTokenCodec{secret: []byte(secret)}, nil
}

type sessionJWTClaims struct {
	AdminID      string `json:"admin_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IPHash       string `json:"ip_hash"`
	DeviceHash   string `json:"device_hash"`
	jwt.RegisteredClaims
}

func (c *HMACTokenCodec) Issue(claims ports.AuthClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionJWTClaims{
		AdminID:      claims.AdminID.String(),
		Username:     claims.Username,
		Role:         claims.Role,
		TokenVersion: claims.TokenVersion,
		IPHash:       claims.IPHash,
		DeviceHash:   claims.DeviceHash,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	return token.SignedString(c.secret)
}

// Verify checks the HMAC signature (constant-time inside jwt/v5) and
// decodes claims only when it is valid. It maps library errors onto the
// domain's two terminal token failures and never consults any store.
func (c *HMACTokenCodec) Verify(raw string) (ports.AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.AuthClaims{}, domain.ErrTokenExpired
		}
		return ports.AuthClaims{}, domain.ErrTokenSignature
	}
	claims, ok := parsed.Claims.(*sessionJWTClaims)
	if !ok || !parsed.Valid {
		return ports.AuthClaims{}, domain.ErrTokenSignature
	}

	adminID, err := uuid.Parse(claims.AdminID)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrTokenSignature
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return ports.AuthClaims{}, domain.ErrTokenSignature
	}

	return ports.AuthClaims{
		AdminID:      adminID,
		Username:     claims.Username,
		Role:         claims.Role,
		TokenVersion: claims.TokenVersion,
		IPHash:       claims.IPHash,
		DeviceHash:   claims.DeviceHash,
		IssuedAt:     claims.IssuedAt.Time.UTC(),
		ExpiresAt:    claims.ExpiresAt.Time.UTC(),
	}, nil
}

var _ ports.TokenCodec = (*HMACTokenCodec)(nil)
