package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"

	utils "movievault/internal"
	"movievault/internal/auth"
	"movievault/internal/cache"
	"movievault/internal/catalog"
	"movievault/internal/config"
	"movievault/internal/logger"
	"movievault/internal/media"
	"movievault/internal/metrics"
	"movievault/internal/response"
	"movievault/internal/s3"
	"movievault/internal/upload"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	log, err := logger.New(cfg.Development())
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		utils.Shutdown(log, "Invalid configuration", err)
	}

	storageConfig, err := config.LoadStorageConfig()
	if err != nil {
		utils.Shutdown(log, "Failed to load storage config", err)
	}

	s3Client, err := s3.NewClient(ctx, cfg)
	if err != nil {
		utils.Shutdown(log, "Failed to create S3 client", err)
	}

	db, err := connectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		utils.Shutdown(log, "Failed to connect to database", err)
	}
	defer db.Close()

	movieStore := catalog.NewPostgresStore(db)
	if err := movieStore.EnsureSchema(ctx); err != nil {
		utils.Shutdown(log, "Failed to prepare database schema", err)
	}

	var urlCache catalog.URLCache
	if cfg.RedisAddr != "" && cfg.MediaBaseURL == "" {
		redisClient, err := cache.NewRedis(ctx, cfg)
		if err != nil {
			utils.Shutdown(log, "Failed to connect to redis", err)
		}
		defer redisClient.Close()
		urlCache = redisClient
	}

	authn := auth.NewAuthenticator(&auth.Config{APIKey: cfg.APIKey, JWTSecret: cfg.JWTSecret})
	privileged := auth.RequirePrivileged(authn, auth.StaffAuthorizer{}, log)

	linker := catalog.NewLinker(cfg.MediaBaseURL, s3Client, cfg.PresignTTL, urlCache, log)
	catalogHandler := catalog.NewHandler(catalog.NewService(movieStore, linker, log), log)
	uploadHandler := upload.NewHandler(upload.NewService(s3Client, log), log)
	mediaHandler := media.NewHandler(media.NewService(s3Client, storageConfig, log), cfg.CacheMaxAgeSeconds(), log)

	mux := http.NewServeMux()

	// APIs
	uploadHandler.Register(mux, privileged)
	catalogHandler.Register(mux, privileged)
	mediaHandler.Register(mux, privileged)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		response.Plain(w, http.StatusOK, "OK")
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      metrics.Middleware(logger.Middleware(log)(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infow("Starting server 🚀", "port", cfg.Port, "bucket", s3Client.Bucket(), "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Shutdown(log, "Server failed to start", err)
		}
	}()

	signal.Notify(utils.QuitChan, syscall.SIGINT, syscall.SIGTERM)
	<-utils.QuitChan

	log.Info("Shutting down server... 🛑")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server forced to shutdown 🚨", "error", err)
	}

	log.Info("Server exited")
}

func connectDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}
