package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	cacheadapter "github.com/brightpath-studio/backoffice/internal/adapters/cache"
	httpadapter "github.com/brightpath-studio/backoffice/internal/adapters/http"
	"github.com/brightpath-studio/backoffice/internal/adapters/janitor"
	"github.com/brightpath-studio/backoffice/internal/adapters/postgres"
	"github.com/brightpath-studio/backoffice/internal/adapters/security"
	"github.com/brightpath-studio/backoffice/internal/application"
	"github.com/brightpath-studio/backoffice/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	janitor    *janitor.Worker
	cleanupFn  func()
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping backoffice auth service", "http_port", cfg.HTTPPort)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	codec, err := security.NewHMACTokenCodec(cfg.TokenSecret)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	repos := postgres.NewRepositories(db)
	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	if cfg.SeedAdminUsername != "" && cfg.SeedAdminPassword != "" {
		passwordHash, hashErr := hasher.Hash(cfg.SeedAdminPassword)
		if hashErr != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("hash seed admin password: %w", hashErr)
		}
		if err := postgres.SeedAdmin(ctx, db, cfg.SeedAdminUsername, passwordHash); err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("seed admin: %w", err)
		}
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			SessionTTL:      cfg.SessionTTL,
			RenewalFraction: cfg.RenewalFraction,
			CsrfTTL:         cfg.CsrfTTL,
			BindingPolicy:   application.BindingPolicy(cfg.BindingPolicy),
			Lockout: ports.LockoutPolicy{
				Threshold:   cfg.LockoutThreshold,
				Window:      cfg.LockoutWindow,
				BaseLockout: cfg.LockoutBase,
				MaxLockout:  cfg.LockoutMax,
			},
			LoginBaseDelay:  cfg.LoginBaseDelay,
			LoginMaxDelay:   cfg.LoginMaxDelay,
			LoginFailWindow: cfg.LoginFailWindow,
			ContactLimit:    cfg.ContactLimit,
			ContactWindow:   cfg.ContactWindow,
		},
		Admins:   repos.Admins,
		Sessions: repos.Sessions,
		Lockouts: repos.Lockouts,
		Csrf:     repos.Csrf,
		Limiter:  cacheadapter.NewRedisRateLimitStore(redisClient),
		Hasher:   hasher,
		Codec:    codec,
		Prints:   security.NewHMACFingerprinter(cfg.TokenSecret),
	})

	handler := httpadapter.NewHandler(svc, httpadapter.Config{
		CookieName:     cfg.CookieName,
		CookieSecure:   cfg.CookieSecure,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	worker := janitor.NewWorker(
		logger,
		repos.Sessions,
		repos.Csrf,
		repos.Lockouts,
		cfg.JanitorInterval,
		cfg.JanitorRetention,
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		janitor:    worker,
		cleanupFn: func() {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

// RunAPI serves HTTP until a shutdown signal or server failure.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		r.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	r.cleanupFn()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// RunWorker runs the janitor loop until a shutdown signal.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("janitor worker started")
	err := r.janitor.Run(ctx)
	r.cleanupFn()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
