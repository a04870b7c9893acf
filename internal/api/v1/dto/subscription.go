package dto

import "time"

// SubscriptionActivateDTO confirms a client-side approved PayPal subscription.
type SubscriptionActivateDTO struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
}

// SubscriptionResponseDTO is returned from subscription endpoints.
type SubscriptionResponseDTO struct {
	Status    string    `json:"status"`
	PlanID    string    `json:"planId"`
	Premium   bool      `json:"premium"`
	StartsAt  time.Time `json:"startsAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
