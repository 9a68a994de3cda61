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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"varna/internal/auth"
	"varna/internal/cloudinary"
	"varna/internal/config"
	"varna/internal/handler"
	"varna/internal/httpmiddleware"
	"varna/internal/logging"
	"varna/internal/metrics"
	"varna/internal/registration"
	"varna/internal/store"
	"varna/internal/upload"
)

func main() {
	// a missing .env is fine, the environment wins anyway
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.Env, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	for _, key := range cfg.InsecureDefaults() {
		entry := log.WithField("var", key)
		if cfg.IsProduction() {
			entry.Error("still using the public default value in production")
		} else {
			entry.Warn("using the public default value")
		}
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.WithError(err).Fatal("http server failed")
	}
}

func runHTTP(cfg config.App, log *logrus.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// The server answers right away; the database catches up in the background.
	connectCtx, stopConnect := context.WithCancel(context.Background())
	defer stopConnect()
	go func() {
		policy := store.RetryPolicy{Interval: cfg.DBRetryInterval, Jitter: cfg.DBRetryJitter}
		if err := db.ConnectWithRetry(connectCtx, policy, log.WithField("component", "db")); err != nil {
			log.WithError(err).Info("database connect loop stopped")
		}
	}()

	files, uploadDir, err := newStorage(cfg)
	if err != nil {
		return err
	}
	log.WithField("backend", cfg.StorageBackend).Info("participant sheet storage ready")

	limiter, closeLimiter := newLimiter(cfg, log)
	defer closeLimiter()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := registration.NewService(registration.NewRepository(db), files, log.WithField("component", "registration"), registration.Options{
		MaxSheetBytes:    cfg.UploadMaxBytes,
		StrictExtensions: cfg.UploadStrictExtensions,
	})
	h := handler.New(db, svc,
		auth.Admin{Email: cfg.AdminEmail, Password: cfg.AdminPassword},
		handler.TokenConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.AdminTokenTTL},
		m, log)

	r := handler.NewRouter(h, handler.RouterConfig{
		Limiter:     limiter,
		UploadDir:   uploadDir,
		FrontendDir: cfg.FrontendDir,
		Gatherer:    reg,
		Logger:      log,
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server listening on http://localhost:%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}
	log.Info("Shutting down server...")
	stopConnect()

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Server forced shutdown")
	}

	log.Info("Server exited")
	return nil
}

// newStorage builds the participant sheet backend. The returned directory is
// non-empty only for local storage and is served under /uploads.
func newStorage(cfg config.App) (upload.Storage, string, error) {
	switch cfg.StorageBackend {
	case "s3":
		s, err := upload.NewS3(upload.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Prefix:    cfg.S3Prefix,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		return s, "", err
	case "cloudinary":
		client := cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		return upload.NewCloudinary(client), "", nil
	case "local":
		l, err := upload.NewLocal(cfg.UploadDir, "/uploads")
		if err != nil {
			return nil, "", err
		}
		return l, cfg.UploadDir, nil
	default:
		return nil, "", fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// newLimiter picks the /api rate limiter. A Redis that cannot be reached at startup
// falls back to the in-memory bucket.
func newLimiter(cfg config.App, log *logrus.Logger) (httpmiddleware.Limiter, func()) {
	noop := func() {}
	switch cfg.RateLimitBackend {
	case "off":
		return nil, noop
	case "redis":
		rdb := store.NewRedis(cfg.RedisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if rdb.Healthy(ctx) {
			log.WithField("addr", cfg.RedisAddr).Info("rate limiting through redis")
			return httpmiddleware.NewRedisWindow(rdb.Client, "varna:ratelimit", cfg.RateLimitPerMin), func() { _ = rdb.Close() }
		}
		_ = rdb.Close()
		log.WithField("addr", cfg.RedisAddr).Warn("redis not reachable, rate limiting in memory")
	}
	return httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin), noop
}
