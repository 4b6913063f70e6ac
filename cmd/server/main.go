package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/labintake/internal/api"
	"github.com/lalith-99/labintake/internal/cache"
	"github.com/lalith-99/labintake/internal/config"
	"github.com/lalith-99/labintake/internal/db"
	"github.com/lalith-99/labintake/internal/middleware"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/observ"
	"github.com/lalith-99/labintake/internal/repository"
	"github.com/lalith-99/labintake/internal/repository/memory"
	"github.com/lalith-99/labintake/internal/repository/postgres"
	"github.com/lalith-99/labintake/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 1. Entity store
	// ---------------------------------------------------------------
	var store repository.Store
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		mem := memory.NewStore()
		if cfg.BootstrapAdminPassword != "" {
			if err := bootstrapAdmin(ctx, mem, cfg.BootstrapAdminPassword); err != nil {
				return fmt.Errorf("bootstrap admin: %w", err)
			}
			logger.Info("bootstrap admin user created", zap.String("username", "admin"))
		}
		store = mem
	default:
		if cfg.MigrateOnStart {
			if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}
		database, err := db.New(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DBMaxConns}, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()
		store = postgres.NewStore(database.Pool())
	}

	// ---------------------------------------------------------------
	// 2. Rate limiter (optional)
	// ---------------------------------------------------------------
	var (
		rdb     *redis.Client
		limiter middleware.Counter
	)
	if cfg.RedisURL != "" {
		rdb, err = cache.NewRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()
		limiter = cache.NewWindowCounter(rdb, "labintake:")
	} else {
		logger.Info("REDIS_URL not set, rate limiting disabled")
	}

	// ---------------------------------------------------------------
	// 3. HTTP server
	// ---------------------------------------------------------------
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	svc := service.New(store, logger, service.WithLocation(cfg.LabLocation))
	router := api.NewRouter(api.Deps{
		Service:     svc,
		Store:       store,
		Logger:      logger,
		JWTSecret:   cfg.JWTSecret,
		JWTTTL:      cfg.JWTTTL,
		LabLocation: cfg.LabLocation,
		Redis:       rdb,
		RateLimiter: limiter,
		RatePerMin:  cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting labintake",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver),
			zap.String("lab_timezone", cfg.LabLocation.String()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// bootstrapAdmin creates an "admin" account so a memory-backed server can be
// logged into. Postgres deployments use cmd/createuser instead.
func bootstrapAdmin(ctx context.Context, store repository.Store, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return store.Users().Create(ctx, &models.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	})
}
