package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

var (
	ErrPayPalNotConfigured     = errors.New("paypal credentials are not configured")
	ErrWebhookVerificationFail = errors.New("webhook signature verification failed")
)

// PayPalSubscriptionDetails is the subset of PayPal's subscription resource
// the platform cares about.
type PayPalSubscriptionDetails struct {
	ID         string    `json:"id"`
	PlanID     string    `json:"plan_id"`
	Status     string    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	Subscriber struct {
		EmailAddress string `json:"email_address"`
	} `json:"subscriber"`
}

// WebhookHeaders carries the PayPal signature headers needed for server-side
// webhook verification.
type WebhookHeaders struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
}

type PayPalService interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*PayPalSubscriptionDetails, error)
	// VerifyWebhookSignature asks PayPal to verify that the raw webhook body
	// was really sent by PayPal for the configured webhook.
	VerifyWebhookSignature(ctx context.Context, headers WebhookHeaders, rawEvent []byte) error
}

type payPalService struct {
	client       *resty.Client
	clientID     string
	clientSecret string
	webhookID    string
	logger       zerolog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPayPalService(baseURL, clientID, clientSecret, webhookID string, logger zerolog.Logger) PayPalService {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	return &payPalService{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
		webhookID:    webhookID,
		logger:       logger.With().Str("service", "PayPalService").Logger(),
	}
}

type payPalTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a cached OAuth access token, refreshing it via the
// client-credentials grant when it is absent or about to expire.
func (s *payPalService) token(ctx context.Context) (string, error) {
	if s.clientID == "" || s.clientSecret == "" {
		return "", ErrPayPalNotConfigured
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry.Add(-time.Minute)) {
		return s.accessToken, nil
	}

	var body payPalTokenResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(s.clientID, s.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&body).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("request paypal access token: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("paypal token endpoint returned %d", resp.StatusCode())
	}

	s.accessToken = body.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return s.accessToken, nil
}

func (s *payPalService) GetSubscription(ctx context.Context, subscriptionID string) (*PayPalSubscriptionDetails, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	var details PayPalSubscriptionDetails
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&details).
		Get("/v1/billing/subscriptions/" + subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("fetch paypal subscription %s: %w", subscriptionID, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("paypal subscription lookup returned %d", resp.StatusCode())
	}
	return &details, nil
}

type webhookVerifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

func (s *payPalService) VerifyWebhookSignature(ctx context.Context, headers WebhookHeaders, rawEvent []byte) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"transmission_id":   headers.TransmissionID,
		"transmission_time": headers.TransmissionTime,
		"transmission_sig":  headers.TransmissionSig,
		"cert_url":          headers.CertURL,
		"auth_algo":         headers.AuthAlgo,
		"webhook_id":        s.webhookID,
		"webhook_event":     json.RawMessage(rawEvent),
	}

	var body webhookVerifyResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(payload).
		SetResult(&body).
		Post("/v1/notifications/verify-webhook-signature")
	if err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}
	if resp.StatusCode() != 200 || body.VerificationStatus != "SUCCESS" {
		s.logger.Warn().
			Int("status_code", resp.StatusCode()).
			Str("verification_status", body.VerificationStatus).
			Msg("Webhook signature rejected")
		return ErrWebhookVerificationFail
	}
	return nil
}
