package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calloway/hearthside/internal/blob"
	"github.com/calloway/hearthside/internal/database"
	"github.com/calloway/hearthside/internal/email"
	"github.com/calloway/hearthside/internal/logging"
	"github.com/calloway/hearthside/internal/server"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.Setup(os.Getenv("HEARTHSIDE_LOG_LEVEL"), os.Getenv("HEARTHSIDE_LOG_FORMAT"))

	port := env("HEARTHSIDE_PORT", "8080")
	dbPath := env("HEARTHSIDE_DB_PATH", "hearthside.db")
	baseURL := env("HEARTHSIDE_BASE_URL", "http://localhost:"+port)

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("HEARTHSIDE_POSTMARK_TOKEN"),
		env("HEARTHSIDE_FROM_EMAIL", "noreply@hearthside.app"),
		baseURL,
	)
	if !emailClient.Configured() {
		logger.Warn("postmark token not set, invite forwarding disabled")
	}

	blobStore := blob.NewStore(blob.Config{
		Endpoint:  os.Getenv("HEARTHSIDE_S3_ENDPOINT"),
		Bucket:    os.Getenv("HEARTHSIDE_S3_BUCKET"),
		Region:    env("HEARTHSIDE_S3_REGION", "auto"),
		AccessKey: os.Getenv("HEARTHSIDE_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("HEARTHSIDE_S3_SECRET_KEY"),
	})
	if !blobStore.Configured() {
		logger.Warn("S3 credentials not set, document storage disabled")
	}

	pushCfg := server.PushConfig{
		VAPIDPublicKey:  os.Getenv("HEARTHSIDE_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("HEARTHSIDE_VAPID_PRIVATE_KEY"),
	}
	if pushCfg.VAPIDPublicKey == "" || pushCfg.VAPIDPrivateKey == "" {
		logger.Warn("VAPID keys not set, push notifications disabled")
	}

	srv := server.New(db, emailClient, blobStore, pushCfg, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hourly sweep of expired sessions and stale rate-limit windows.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	go func() {
		logger.Info("hearthside listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
