package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invexqr/internal/api/v1/router"
	"invexqr/internal/config"
	"invexqr/internal/logger"
	"invexqr/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// @title InvexQR API
// @version 1.0
// @description Dynamic QR code generation and scan tracking API
// @host localhost:8080
// @BasePath /v1
// @Schemes http https

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// 2. Hydrate sensitive credentials from Secret Manager when deployed
	// with a GCP project and no env-provided values.
	hydrateSecrets(cfg, logger)

	// 3. Build router (and get DB pool)
	r, pool, err := router.New(cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to build router: %v", err)
	}
	defer pool.Close()

	// 4. Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Start server in a goroutine
	go func() {
		logger.Info().Msgf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Msgf("Listen: %s\n", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Msgf("Server forced to shutdown: %v", err)
	}
	logger.Info().Msg("Server shut down gracefully")
}

// hydrateSecrets fills missing credentials from Secret Manager. Values set via
// environment variables always win, and the whole step is skipped without a
// GCP project.
func hydrateSecrets(cfg *config.Config, logger zerolog.Logger) {
	if cfg.GCPProjectID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	secrets, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID)
	if err != nil {
		logger.Warn().Err(err).Msg("Secret Manager unavailable; relying on environment variables only")
		return
	}
	defer secrets.Close()

	resolve := func(target *string, name string) {
		if *target != "" {
			return
		}
		value, err := secrets.Resolve(ctx, name)
		if err != nil {
			logger.Warn().Err(err).Str("secret", name).Msg("Failed to resolve secret")
			return
		}
		*target = value
	}

	resolve(&cfg.PayPalClientSecret, "paypal-client-secret")
	resolve(&cfg.SMTPPassword, "smtp-password")
	resolve(&cfg.S3SecretKey, "s3-secret-key")
}
