package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"invexqr/internal/api/v1/dto"
	"invexqr/internal/middleware"
	"invexqr/internal/model"
	"invexqr/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type SubscriptionHandler struct {
	subService    service.SubscriptionService
	paypalService service.PayPalService
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewSubscriptionHandler(subService service.SubscriptionService, paypalService service.PayPalService, validate *validator.Validate, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subService:    subService,
		paypalService: paypalService,
		validate:      validate,
		logger:        logger,
	}
}

// RegisterRoutes mounts v1 subscription routes. The webhook endpoint is
// unauthenticated; PayPal's signature verification replaces bearer auth there.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/subscriptions/activate", authMw(http.HandlerFunc(h.activate)))
	mux.Handle("/subscriptions/me", authMw(http.HandlerFunc(h.getSubscription)))
	mux.HandleFunc("/webhooks/paypal", h.paypalWebhook)
}

func subscriptionResponse(sub *model.Subscription) dto.SubscriptionResponseDTO {
	return dto.SubscriptionResponseDTO{
		Status:    sub.Status,
		PlanID:    sub.PlanID,
		Premium:   sub.IsPremium(),
		StartsAt:  sub.StartsAt,
		UpdatedAt: sub.UpdatedAt,
	}
}

// activate godoc
// @Summary Activate a PayPal subscription
// @Description Confirms a subscription approved on the client against PayPal's records and stores it.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body dto.SubscriptionActivateDTO true "Approved subscription"
// @Success 200 {object} dto.SubscriptionResponseDTO
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 409 {string} string "Subscription is not active"
// @Router /subscriptions/activate [post]
func (h *SubscriptionHandler) activate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.SubscriptionActivateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := h.subService.Activate(r.Context(), userID, req.SubscriptionID)
	if err != nil {
		if errors.Is(err, service.ErrSubscriptionInactive) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "Failed to activate subscription: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(subscriptionResponse(sub)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// getSubscription godoc
// @Summary Get the user's subscription
// @Tags subscriptions
// @Produce json
// @Success 200 {object} dto.SubscriptionResponseDTO
// @Failure 404 {string} string "Subscription not found"
// @Router /subscriptions/me [get]
func (h *SubscriptionHandler) getSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	sub, err := h.subService.GetSubscription(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(subscriptionResponse(sub)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

type paypalWebhookEvent struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID string `json:"id"`
	} `json:"resource"`
}

// paypalWebhook godoc
// @Summary PayPal billing webhook
// @Description Applies subscription lifecycle events after verifying PayPal's transmission signature.
// @Tags subscriptions
// @Accept json
// @Success 200 {string} string "OK"
// @Failure 401 {string} string "Webhook signature verification failed"
// @Router /webhooks/paypal [post]
func (h *SubscriptionHandler) paypalWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	headers := service.WebhookHeaders{
		TransmissionID:   r.Header.Get("Paypal-Transmission-Id"),
		TransmissionTime: r.Header.Get("Paypal-Transmission-Time"),
		TransmissionSig:  r.Header.Get("Paypal-Transmission-Sig"),
		CertURL:          r.Header.Get("Paypal-Cert-Url"),
		AuthAlgo:         r.Header.Get("Paypal-Auth-Algo"),
	}
	if err := h.paypalService.VerifyWebhookSignature(r.Context(), headers, body); err != nil {
		h.logger.Warn().Err(err).Msg("Rejected PayPal webhook")
		http.Error(w, "Webhook signature verification failed", http.StatusUnauthorized)
		return
	}

	var event paypalWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Invalid webhook payload", http.StatusBadRequest)
		return
	}

	if err := h.subService.ApplyWebhookStatus(r.Context(), event.Resource.ID, event.EventType); err != nil {
		// Non-2xx makes PayPal retry the delivery.
		http.Error(w, "Failed to apply webhook event", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
