package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	PublicBaseURL      string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// Auth
	JWTSecret         string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer         string `envconfig:"JWT_ISSUER" default:"invexqr"`
	SessionTTLHours   int    `envconfig:"SESSION_TTL_HOURS" default:"168"`
	FirebaseProjectID string `envconfig:"FIREBASE_PROJECT_ID"`
	FirebasePublicKey string `envconfig:"FIREBASE_PUBLIC_KEY"`

	// Short code generation
	ShortCodeSalt string `envconfig:"SHORT_CODE_SALT" default:"invexqr-short-codes"`

	// Geolocation lookup
	GeoIPBaseURL    string `envconfig:"GEOIP_BASE_URL" default:"http://ip-api.com/json"`
	GeoIPTimeoutSec int    `envconfig:"GEOIP_TIMEOUT_SEC" default:"3"`

	// PayPal billing
	PayPalBaseURL      string `envconfig:"PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
	PayPalClientID     string `envconfig:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `envconfig:"PAYPAL_CLIENT_SECRET"`
	PayPalPlanID       string `envconfig:"PAYPAL_PLAN_ID"`
	PayPalWebhookID    string `envconfig:"PAYPAL_WEBHOOK_ID"`

	// SMTP notifications
	SMTPHost         string `envconfig:"SMTP_HOST" default:"mail.infomaniak.com"`
	SMTPPort         int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser         string `envconfig:"SMTP_USER"`
	SMTPPassword     string `envconfig:"SMTP_PASS"`
	EmailFrom        string `envconfig:"EMAIL_FROM" default:"contact@invexqr.com"`
	ContactRecipient string `envconfig:"CONTACT_RECIPIENT" default:"contact@invexqr.com"`

	// S3-compatible asset storage (pdf/menu/audio payloads)
	S3URL       string `envconfig:"S3_URL"`
	S3PublicURL string `envconfig:"S3_PUBLIC_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"invexqr-assets"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// Scan event fan-out (Pub/Sub)
	GCPProjectID                  string `envconfig:"GCP_PROJECT_ID"`
	ScanEventsTopic               string `envconfig:"SCAN_EVENTS_TOPIC" default:"scan_events"`
	ScanEventsEndpointURL         string `envconfig:"SCAN_EVENTS_ENDPOINT_URL"`
	PubSubEmulatorHost            string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubPushServiceAccountEmail string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`
	ScanMilestoneEvery            int    `envconfig:"SCAN_MILESTONE_EVERY" default:"100"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
