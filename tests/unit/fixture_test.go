package unit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/brightpath-studio/backoffice/internal/adapters/memory"
	"github.com/brightpath-studio/backoffice/internal/adapters/security"
	"github.com/brightpath-studio/backoffice/internal/application"
	"github.com/brightpath-studio/backoffice/internal/domain"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

const (
	testSecret   = "unit-test-signing-secret-0123456789abcdef"
	testPassword = "Sufficient#Length9"
)

// clock is a controllable time source shared by the service and the
// in-memory rate limit store.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Now().UTC()}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	service  *application.Service
	admins   *memory.AdminRepository
	sessions *memory.SessionRepository
	lockouts *memory.LockoutRepository
	csrf     *memory.CsrfTokenRepository
	limiter  *memory.RateLimitStore
	hasher   *security.BcryptHasher
	clock    *clock
	adminID  uuid.UUID
}

func newFixture(t *testing.T, policy application.BindingPolicy) *fixture {
	t.Helper()

	codec, err := security.NewHMACTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("init codec: %v", err)
	}

	c := newClock()
	f := &fixture{
		admins:   memory.NewAdminRepository(),
		sessions: memory.NewSessionRepository(),
		lockouts: memory.NewLockoutRepository(),
		csrf:     memory.NewCsrfTokenRepository(),
		limiter:  memory.NewRateLimitStore().WithClock(c.Now),
		hasher:   security.NewBcryptHasher(bcrypt.MinCost),
		clock:    c,
	}

	f.service = application.NewService(application.Dependencies{
		Config: application.Config{
			SessionTTL:      time.Hour,
			RenewalFraction: 0.25,
			CsrfTTL:         10 * time.Minute,
			BindingPolicy:   policy,
			Lockout: ports.LockoutPolicy{
				Threshold:   5,
				Window:      15 * time.Minute,
				BaseLockout: 15 * time.Minute,
				MaxLockout:  24 * time.Hour,
			},
			LoginBaseDelay:  time.Second,
			LoginMaxDelay:   time.Minute,
			LoginFailWindow: 15 * time.Minute,
			ContactLimit:    2,
			ContactWindow:   time.Hour,
		},
		Admins:   f.admins,
		Sessions: f.sessions,
		Lockouts: f.lockouts,
		Csrf:     f.csrf,
		Limiter:  f.limiter,
		Hasher:   f.hasher,
		Codec:    codec,
		Prints:   security.NewHMACFingerprinter(testSecret),
	}).WithClock(c.Now)

	f.seedAdmin(t, "owner", testPassword)
	return f
}

func (f *fixture) seedAdmin(t *testing.T, username, password string) {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	admin := domain.AdminUser{
		AdminID:      uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         "ADMIN",
		TokenVersion: 1,
		CreatedAt:    f.clock.Now(),
		UpdatedAt:    f.clock.Now(),
	}
	f.admins.Seed(admin)
	f.adminID = admin.AdminID
}

func (f *fixture) login(t *testing.T, client application.ClientContext) application.LoginResponse {
	t.Helper()
	res, err := f.service.Login(context.Background(), application.LoginRequest{
		Username: "owner",
		Password: testPassword,
		Client:   client,
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return res
}

func defaultClient() application.ClientContext {
	return application.ClientContext{IP: "127.0.0.1", UserAgent: "unit-test"}
}
