package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"invexqr/internal/model"
	"invexqr/internal/repository"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionInactive = errors.New("subscription is not active")
)

// SubscriptionService defines business logic methods for PayPal-backed
// subscriptions.
type SubscriptionService interface {
	// Activate confirms a subscription the user approved client-side against
	// PayPal's records and stores the result.
	Activate(ctx context.Context, userID, paypalSubscriptionID string) (*model.Subscription, error)
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	IsPremium(ctx context.Context, userID string) (bool, error)
	// ApplyWebhookStatus updates the stored subscription from a verified
	// PayPal webhook event type.
	ApplyWebhookStatus(ctx context.Context, paypalSubscriptionID, eventType string) error
}

type subscriptionService struct {
	repo   repository.SubscriptionRepository
	paypal PayPalService
	logger zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(repo repository.SubscriptionRepository, paypal PayPalService, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		repo:   repo,
		paypal: paypal,
		logger: logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

// mapPayPalStatus lowercases PayPal's subscription status into the stored
// vocabulary. Unrecognized values pass through lowercased.
func mapPayPalStatus(paypalStatus string) string {
	switch strings.ToUpper(paypalStatus) {
	case "ACTIVE":
		return model.SubscriptionActive
	case "CANCELLED":
		return model.SubscriptionCancelled
	case "SUSPENDED":
		return model.SubscriptionSuspended
	case "EXPIRED":
		return model.SubscriptionExpired
	default:
		return strings.ToLower(paypalStatus)
	}
}

func (s *subscriptionService) Activate(ctx context.Context, userID, paypalSubscriptionID string) (*model.Subscription, error) {
	details, err := s.paypal.GetSubscription(ctx, paypalSubscriptionID)
	if err != nil {
		s.logger.Error().Err(err).Str("subscription_id", paypalSubscriptionID).Msg("Failed to confirm subscription with PayPal")
		return nil, err
	}

	status := mapPayPalStatus(details.Status)
	if status != model.SubscriptionActive {
		s.logger.Warn().
			Str("subscription_id", paypalSubscriptionID).
			Str("status", details.Status).
			Msg("Refusing to activate subscription that PayPal does not report as active")
		return nil, ErrSubscriptionInactive
	}

	sub := &model.Subscription{
		UserID:               userID,
		PayPalSubscriptionID: paypalSubscriptionID,
		PlanID:               details.PlanID,
		Status:               status,
		StartsAt:             details.StartTime,
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to store subscription")
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch subscription")
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *subscriptionService) IsPremium(ctx context.Context, userID string) (bool, error) {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub.IsPremium(), nil
}

// webhookStatusByEvent maps PayPal billing event types to stored statuses.
var webhookStatusByEvent = map[string]string{
	"BILLING.SUBSCRIPTION.ACTIVATED": model.SubscriptionActive,
	"BILLING.SUBSCRIPTION.UPDATED":   model.SubscriptionActive,
	"BILLING.SUBSCRIPTION.CANCELLED": model.SubscriptionCancelled,
	"BILLING.SUBSCRIPTION.SUSPENDED": model.SubscriptionSuspended,
	"BILLING.SUBSCRIPTION.EXPIRED":   model.SubscriptionExpired,
}

func (s *subscriptionService) ApplyWebhookStatus(ctx context.Context, paypalSubscriptionID, eventType string) error {
	status, ok := webhookStatusByEvent[eventType]
	if !ok {
		// Payment events and other notifications carry no status change.
		s.logger.Debug().Str("event_type", eventType).Msg("Ignoring webhook event with no subscription status mapping")
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, paypalSubscriptionID, status); err != nil {
		s.logger.Error().Err(err).
			Str("subscription_id", paypalSubscriptionID).
			Str("event_type", eventType).
			Msg("Failed to apply webhook status")
		return err
	}
	return nil
}
