package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"invexqr/internal/api/v1/handler"
	"invexqr/internal/config"
	"invexqr/internal/middleware"
	"invexqr/internal/pubsub"
	"invexqr/internal/repository"
	"invexqr/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Msg("Router initialized")
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	// 1. Open DB connection pool
	dsn := cfg.DBConnectionString
	// In a development environment, ensure SSL is disabled for local testing.
	// In production, the connection string should carry the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse DB connection string")
		return nil, nil, err
	}
	poolCfg.MaxConns = 25
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection pool")
		return nil, nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	if err := repository.Migrate(context.Background(), pool); err != nil {
		logger.Error().Err(err).Msg("Failed to run migrations")
		return nil, nil, err
	}

	// 2. Initialize S3 client for asset uploads
	s3Config, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Initialize Pub/Sub publisher. Scan fan-out degrades to DB-only
	// recording when no project is configured.
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		pubSubPublisher, err := pubsub.NewPublisher(context.Background(), cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
			return nil, nil, err
		}
		publisher = pubSubPublisher
	} else {
		logger.Warn().Msg("GCP project not configured; scan events will not be published")
	}

	// 5. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(pool)
	qrCodeRepo := repository.NewQRCodeRepo(pool)
	scanRepo := repository.NewScanRepo(pool)
	subscriptionRepo := repository.NewSubscriptionRepo(pool)

	emailSvc := service.NewEmailService(cfg, logger)
	userSvc := service.NewUserService(userRepo, emailSvc, cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.SessionTTLHours)*time.Hour, logger)
	qrCodeSvc, err := service.NewQRCodeService(qrCodeRepo, cfg.ShortCodeSalt, cfg.PublicBaseURL, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create QR code service")
		return nil, nil, err
	}
	geoIPSvc := service.NewGeoIPService(cfg.GeoIPBaseURL, time.Duration(cfg.GeoIPTimeoutSec)*time.Second, logger)
	scanSvc := service.NewScanService(scanRepo, geoIPSvc, publisher, cfg.ScanEventsTopic, logger)
	analyticsSvc := service.NewAnalyticsService(scanRepo, logger)
	paypalSvc := service.NewPayPalService(cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalClientSecret, cfg.PayPalWebhookID, logger)
	subscriptionSvc := service.NewSubscriptionService(subscriptionRepo, paypalSvc, logger)
	uploadSvc := service.NewUploadService(s3Client, cfg.S3Bucket, cfg.S3PublicURL, logger)

	authHandler := handler.NewAuthHandler(userSvc, validate, logger)
	userHandler := handler.NewUserHandler(userSvc, logger)
	qrCodeHandler := handler.NewQRCodeHandler(qrCodeSvc, scanSvc, subscriptionSvc, validate, cfg.PublicBaseURL, logger)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionSvc, paypalSvc, validate, logger)
	contactHandler := handler.NewContactHandler(emailSvc, validate, logger)
	uploadHandler := handler.NewUploadHandler(uploadSvc, validate, logger)
	scanEventHandler := handler.NewScanEventHandler(scanSvc, userSvc, emailSvc, qrCodeSvc, cfg.ScanMilestoneEvery, logger)
	redirectHandler := handler.NewRedirectHandler(qrCodeSvc, scanSvc, logger)

	// 6. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg, userSvc)
	isLocalDev := cfg.PubSubEmulatorHost != ""
	pubsubAuthMiddleware := middleware.PubSubAuthMiddleware(isLocalDev, cfg.ScanEventsEndpointURL, cfg.PubSubPushServiceAccountEmail, logger)

	// 7. Create ServeMux router
	mux := http.NewServeMux()

	// Create a subrouter for API v1 with the /v1 prefix
	apiV1Mux := http.NewServeMux()
	authHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	qrCodeHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	analyticsHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	subscriptionHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	contactHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	uploadHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	scanEventHandler.RegisterRoutes(apiV1Mux, pubsubAuthMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Public redirect routes live at the root; these paths are printed
	// inside QR images and must stay stable.
	redirectHandler.RegisterRoutes(mux)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// 8. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		Debug:            false,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), pool, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
