package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

const testSecret = "token-test-signing-secret-0123456789abc"

func testClaims(issuedAt time.Time, ttl time.Duration) ports.AuthClaims {
	return ports.AuthClaims{
		AdminID:      uuid.New(),
		Username:     "owner",
		Role:         "ADMIN",
		TokenVersion: 3,
		IPHash:       "ip-hash",
		DeviceHash:   "device-hash",
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt.Add(ttl),
	}
}

func TestCodecRejectsShortSecret(t *testing.T) {
	t.Parallel()
	if _, err := NewHMACTokenCodec("too-short"); err == nil {
		t.Fatalf("expected error for short secret")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	codec, err := NewHMACTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("init codec: %v", err)
	}

	want := testClaims(time.Now().UTC().Truncate(time.Second), time.Hour)
	token, err := codec.Issue(want)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	got, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if got.AdminID != want.AdminID || got.Username != want.Username || got.Role != want.Role {
		t.Fatalf("identity mismatch: got %+v want %+v", got, want)
	}
	if got.TokenVersion != want.TokenVersion {
		t.Fatalf("token version mismatch: got %d want %d", got.TokenVersion, want.TokenVersion)
	}
	if got.IPHash != want.IPHash || got.DeviceHash != want.DeviceHash {
		t.Fatalf("binding hash mismatch: got %+v", got)
	}
	if !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Fatalf("expiry mismatch: got %v want %v", got.ExpiresAt, want.ExpiresAt)
	}
}

func TestCodecRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	codec, err := NewHMACTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("init codec: %v", err)
	}

	token, err := codec.Issue(testClaims(time.Now().UTC().Add(-2*time.Hour), time.Hour))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := codec.Verify(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected token expired, got %v", err)
	}
}

func TestCodecRejectsTamperingAndForeignKeys(t *testing.T) {
	t.Parallel()

	codec, err := NewHMACTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("init codec: %v", err)
	}
	other, err := NewHMACTokenCodec("a-different-signing-secret-9876543210zz")
	if err != nil {
		t.Fatalf("init other codec: %v", err)
	}

	token, err := codec.Issue(testClaims(time.Now().UTC(), time.Hour))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Flip a payload byte.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	payload := []byte(parts[1])
	payload[len(payload)/2] ^= 0x01
	tampered := parts[0] + "." + string(payload) + "." + parts[2]
	if _, err := codec.Verify(tampered); !errors.Is(err, domain.ErrTokenSignature) {
		t.Fatalf("tampered token should fail signature check, got %v", err)
	}

	// A token signed under another key never verifies.
	foreign, err := other.Issue(testClaims(time.Now().UTC(), time.Hour))
	if err != nil {
		t.Fatalf("issue foreign failed: %v", err)
	}
	if _, err := codec.Verify(foreign); !errors.Is(err, domain.ErrTokenSignature) {
		t.Fatalf("foreign-key token should fail signature check, got %v", err)
	}
}

func TestFingerprinterIsKeyedAndDeterministic(t *testing.T) {
	t.Parallel()

	a := NewHMACFingerprinter(testSecret)
	b := NewHMACFingerprinter("a-different-signing-secret-9876543210zz")

	if a.HashIP("192.0.2.1") != a.HashIP("192.0.2.1") {
		t.Fatalf("fingerprints must be deterministic")
	}
	if a.HashIP("192.0.2.1") == a.HashIP("192.0.2.2") {
		t.Fatalf("distinct inputs must not collide")
	}
	if a.HashIP("192.0.2.1") == b.HashIP("192.0.2.1") {
		t.Fatalf("fingerprints must depend on the key")
	}
	if a.HashIP("192.0.2.1") == a.HashDevice("192.0.2.1") {
		t.Fatalf("ip and device scopes must be separated")
	}
}
