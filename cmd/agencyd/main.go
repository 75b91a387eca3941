// Command agencyd runs the agency dashboard backend.
package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"talenthub/internal/auth"
	"talenthub/internal/config"
	"talenthub/internal/ratelimit"
	"talenthub/internal/server"
	"talenthub/internal/storage"
	"talenthub/internal/store"
	"talenthub/internal/util"
	"talenthub/pkg/domain"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: loading .env: %v", err)
	}
	cfg, err := config.Load(os.Getenv("AGENCY_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var dataStore store.Store
	if cfg.DatabasePath != "" {
		gs, err := store.NewGormStore(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		dataStore = gs
		slog.Info("using sqlite store", "path", cfg.DatabasePath)
	} else {
		dataStore = store.NewMemoryStore()
		slog.Warn("no databasePath configured, data will not survive restarts")
	}

	var sessions store.SessionStore
	var loginLimiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" {
		sessions = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, sessionTTL)
		loginLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "talenthub:ratelimit:login",
			cfg.LoginRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	} else {
		sessions = store.NewMemorySessionStore()
		loginLimiter, err = ratelimit.NewLocalFixedWindowLimiter(cfg.LoginRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
		slog.Warn("no redisAddr configured, sessions and rate limits are process-local")
	}

	var objects storage.ObjectStore
	fileDir := ""
	if cfg.MinioEndpoint != "" {
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object storage: %v", err)
		}
	} else {
		fs, err := storage.NewFileStore(cfg.StorageDir)
		if err != nil {
			log.Fatalf("failed to init file storage: %v", err)
		}
		objects = fs
		fileDir = fs.BasePath()
	}

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("invalid trustedProxyCidrs: %v", err)
	}

	if err := ensureAdminUser(dataStore); err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}

	httpServer := server.New(server.Config{
		Store:          dataStore,
		Sessions:       sessions,
		Objects:        objects,
		LoginLimiter:   loginLimiter,
		TrustedProxies: trustedProxies,
		MaxUploadBytes: cfg.MaxUploadBytes,
		FileDir:        fileDir,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

// ensureAdminUser creates the initial admin account on an empty user table.
func ensureAdminUser(s store.Store) error {
	count, err := s.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	password := os.Getenv("AGENCY_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		slog.Warn("AGENCY_ADMIN_PASSWORD not set, using default admin credentials")
	}
	return s.SaveUser(domain.User{
		ID:           domain.NewID(),
		Username:     "admin",
		Name:         "Amministratore",
		Role:         domain.RoleAdmin,
		PasswordHash: auth.HashPassword(password),
		CreatedAt:    time.Now().UTC(),
	})
}
