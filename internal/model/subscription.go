package model

import "time"

// Subscription statuses tracked from PayPal webhooks.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionSuspended = "suspended"
	SubscriptionExpired   = "expired"
)

// Subscription is a user's flat-rate PayPal subscription. One row per user.
type Subscription struct {
	UserID               string    `db:"user_id" json:"userId"`
	PayPalSubscriptionID string    `db:"paypal_subscription_id" json:"paypalSubscriptionId"`
	PlanID               string    `db:"plan_id" json:"planId"`
	Status               string    `db:"status" json:"status"`
	StartsAt             time.Time `db:"starts_at" json:"startsAt"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`
}

// IsPremium reports whether the subscription currently unlocks premium
// dashboard features.
func (s *Subscription) IsPremium() bool {
	return s != nil && s.Status == SubscriptionActive
}
