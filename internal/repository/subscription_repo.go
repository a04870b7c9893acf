package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"invexqr/internal/model"
)

// SubscriptionRepository defines methods for accessing subscription data.
type SubscriptionRepository interface {
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	GetByPayPalSubscriptionID(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	Upsert(ctx context.Context, sub *model.Subscription) error
	UpdateStatus(ctx context.Context, paypalSubscriptionID, status string) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `user_id, paypal_subscription_id, plan_id, status, starts_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(&s.UserID, &s.PayPalSubscriptionID, &s.PlanID, &s.Status, &s.StartsAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepo) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM user_subscriptions WHERE user_id = $1`
	sub, err := scanSubscription(r.pool.QueryRow(ctx, q, userID))
	if err != nil {
		return nil, fmt.Errorf("fetch subscription for user %s: %w", userID, err)
	}
	return sub, nil
}

func (r *subscriptionRepo) GetByPayPalSubscriptionID(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM user_subscriptions WHERE paypal_subscription_id = $1`
	sub, err := scanSubscription(r.pool.QueryRow(ctx, q, subscriptionID))
	if err != nil {
		return nil, fmt.Errorf("fetch subscription %s: %w", subscriptionID, err)
	}
	return sub, nil
}

func (r *subscriptionRepo) Upsert(ctx context.Context, sub *model.Subscription) error {
	const q = `
		INSERT INTO user_subscriptions (user_id, paypal_subscription_id, plan_id, status, starts_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET paypal_subscription_id = EXCLUDED.paypal_subscription_id,
		    plan_id = EXCLUDED.plan_id,
		    status = EXCLUDED.status,
		    starts_at = EXCLUDED.starts_at,
		    updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, q, sub.UserID, sub.PayPalSubscriptionID, sub.PlanID, sub.Status, sub.StartsAt)
	if err != nil {
		return fmt.Errorf("upsert subscription for user %s: %w", sub.UserID, err)
	}
	return nil
}

func (r *subscriptionRepo) UpdateStatus(ctx context.Context, paypalSubscriptionID, status string) error {
	const q = `
		UPDATE user_subscriptions
		SET status = $2, updated_at = NOW()
		WHERE paypal_subscription_id = $1
	`
	_, err := r.pool.Exec(ctx, q, paypalSubscriptionID, status)
	if err != nil {
		return fmt.Errorf("update subscription %s status: %w", paypalSubscriptionID, err)
	}
	return nil
}
