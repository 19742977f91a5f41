package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/brightpath-studio/backoffice/internal/adapters/security"
	"github.com/brightpath-studio/backoffice/internal/application"
)

// Config is the resolved runtime configuration. It merges file defaults and
// environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string
	HTTPPort  int

	DatabaseURL string
	RedisURL    string

	// TokenSecret signs session tokens and keys the fingerprint HMAC. A
	// missing or short value is a fatal configuration error.
	TokenSecret string

	BcryptCost int

	SessionTTL      time.Duration
	RenewalFraction float64
	CsrfTTL         time.Duration
	BindingPolicy   string

	LockoutThreshold int
	LockoutWindow    time.Duration
	LockoutBase      time.Duration
	LockoutMax       time.Duration

	LoginBaseDelay  time.Duration
	LoginMaxDelay   time.Duration
	LoginFailWindow time.Duration

	ContactLimit  int
	ContactWindow time.Duration

	CookieName     string
	CookieSecure   bool
	AllowedOrigins []string

	MaxDBConns int32

	JanitorInterval  time.Duration
	JanitorRetention time.Duration

	SeedAdminUsername string
	SeedAdminPassword string
}

// configFile mirrors the YAML schema used by configs/default.yaml. It is
// intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Security struct {
		BindingPolicy  string   `yaml:"binding_policy"`
		CookieName     string   `yaml:"cookie_name"`
		CookieSecure   *bool    `yaml:"cookie_secure"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"security"`
}

// LoadConfig resolves configuration in priority order: defaults -> file ->
// env. A .env file is folded into the environment first for local runs.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServiceID:        "backoffice",
		HTTPPort:         8080,
		BcryptCost:       12,
		SessionTTL:       8 * time.Hour,
		RenewalFraction:  0.25,
		CsrfTTL:          10 * time.Minute,
		BindingPolicy:    string(application.BindingStrict),
		LockoutThreshold: 5,
		LockoutWindow:    15 * time.Minute,
		LockoutBase:      15 * time.Minute,
		LockoutMax:       24 * time.Hour,
		LoginBaseDelay:   time.Second,
		LoginMaxDelay:    time.Minute,
		LoginFailWindow:  15 * time.Minute,
		ContactLimit:     5,
		ContactWindow:    time.Hour,
		CookieName:       "bp_admin_session",
		CookieSecure:     true,
		AllowedOrigins:   []string{"https://admin.brightpath.example"},
		MaxDBConns:       20,
		JanitorInterval:  5 * time.Minute,
		JanitorRetention: 24 * time.Hour,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Security.BindingPolicy != "" {
			cfg.BindingPolicy = f.Security.BindingPolicy
		}
		if f.Security.CookieName != "" {
			cfg.CookieName = f.Security.CookieName
		}
		if f.Security.CookieSecure != nil {
			cfg.CookieSecure = *f.Security.CookieSecure
		}
		if len(f.Security.AllowedOrigins) > 0 {
			cfg.AllowedOrigins = f.Security.AllowedOrigins
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.TokenSecret = envOrDefault("AUTH_TOKEN_SECRET", cfg.TokenSecret)
	cfg.BindingPolicy = strings.ToLower(strings.TrimSpace(envOrDefault("SESSION_BINDING_POLICY", cfg.BindingPolicy)))
	cfg.CookieName = envOrDefault("SESSION_COOKIE_NAME", cfg.CookieName)
	cfg.CookieSecure = envBool("SESSION_COOKIE_SECURE", cfg.CookieSecure)
	cfg.AllowedOrigins = envCSV("CORS_ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.SeedAdminUsername = envOrDefault("SEED_ADMIN_USERNAME", cfg.SeedAdminUsername)
	cfg.SeedAdminPassword = envOrDefault("SEED_ADMIN_PASSWORD", cfg.SeedAdminPassword)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_MINUTES", int(cfg.SessionTTL.Minutes()))) * time.Minute
	cfg.CsrfTTL = time.Duration(envInt("CSRF_TTL_MINUTES", int(cfg.CsrfTTL.Minutes()))) * time.Minute
	cfg.LockoutThreshold = envInt("FAILED_LOGIN_THRESHOLD", cfg.LockoutThreshold)
	cfg.LockoutWindow = time.Duration(envInt("FAILED_LOGIN_WINDOW_MINUTES", int(cfg.LockoutWindow.Minutes()))) * time.Minute
	cfg.LockoutBase = time.Duration(envInt("LOCKOUT_BASE_MINUTES", int(cfg.LockoutBase.Minutes()))) * time.Minute
	cfg.LockoutMax = time.Duration(envInt("LOCKOUT_MAX_HOURS", int(cfg.LockoutMax.Hours()))) * time.Hour
	cfg.LoginBaseDelay = time.Duration(envInt("LOGIN_BASE_DELAY_SECONDS", int(cfg.LoginBaseDelay.Seconds()))) * time.Second
	cfg.LoginMaxDelay = time.Duration(envInt("LOGIN_MAX_DELAY_SECONDS", int(cfg.LoginMaxDelay.Seconds()))) * time.Second
	cfg.LoginFailWindow = time.Duration(envInt("LOGIN_FAIL_WINDOW_MINUTES", int(cfg.LoginFailWindow.Minutes()))) * time.Minute
	cfg.ContactLimit = envInt("CONTACT_RATE_LIMIT", cfg.ContactLimit)
	cfg.ContactWindow = time.Duration(envInt("CONTACT_RATE_WINDOW_MINUTES", int(cfg.ContactWindow.Minutes()))) * time.Minute
	cfg.JanitorInterval = time.Duration(envInt("JANITOR_INTERVAL_SECONDS", int(cfg.JanitorInterval.Seconds()))) * time.Second
	cfg.JanitorRetention = time.Duration(envInt("JANITOR_RETENTION_HOURS", int(cfg.JanitorRetention.Hours()))) * time.Hour

	if raw := os.Getenv("SESSION_RENEWAL_FRACTION"); raw != "" {
		if v, parseErr := strconv.ParseFloat(raw, 64); parseErr == nil && v > 0 && v < 1 {
			cfg.RenewalFraction = v
		}
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if len(cfg.TokenSecret) < security.MinSecretLength {
		return Config{}, fmt.Errorf("AUTH_TOKEN_SECRET must be at least %d bytes", security.MinSecretLength)
	}
	if cfg.BindingPolicy != string(application.BindingStrict) && cfg.BindingPolicy != string(application.BindingObserve) {
		return Config{}, fmt.Errorf("invalid SESSION_BINDING_POLICY %q", cfg.BindingPolicy)
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
