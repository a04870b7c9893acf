package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"invexqr/internal/api/v1/dto"
	"invexqr/internal/model"
	"invexqr/internal/service"

	"github.com/rs/zerolog"
)

// ScanEventHandler consumes scan events pushed back from Pub/Sub and sends
// milestone notifications to QR code owners.
type ScanEventHandler struct {
	scanService    service.ScanService
	userService    service.UserService
	emailService   service.EmailService
	qrService      service.QRCodeService
	milestoneEvery int64
	logger         zerolog.Logger
}

func NewScanEventHandler(scanService service.ScanService, userService service.UserService, emailService service.EmailService, qrService service.QRCodeService, milestoneEvery int, logger zerolog.Logger) *ScanEventHandler {
	return &ScanEventHandler{
		scanService:    scanService,
		userService:    userService,
		emailService:   emailService,
		qrService:      qrService,
		milestoneEvery: int64(milestoneEvery),
		logger:         logger,
	}
}

// RegisterRoutes mounts the Pub/Sub push endpoint. The middleware passed in
// must be the Pub/Sub auth middleware, not bearer auth.
func (h *ScanEventHandler) RegisterRoutes(mux *http.ServeMux, pubsubAuthMw func(http.Handler) http.Handler) {
	mux.Handle("/notifications/scan-events", pubsubAuthMw(http.HandlerFunc(h.handlePush)))
}

// handlePush godoc
// @Summary Pub/Sub push endpoint for scan events
// @Description Acknowledges scan events and emails the owner whenever a code crosses a scan-count milestone.
// @Tags notifications
// @Accept json
// @Success 204 {string} string "No Content"
// @Failure 400 {string} string "Invalid push envelope"
// @Router /notifications/scan-events [post]
func (h *ScanEventHandler) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var push dto.PubSubPushRequest
	if err := json.NewDecoder(r.Body).Decode(&push); err != nil {
		http.Error(w, "Invalid push envelope: "+err.Error(), http.StatusBadRequest)
		return
	}

	data, err := base64.StdEncoding.DecodeString(push.Message.Data)
	if err != nil {
		// Acknowledge malformed messages so they do not loop forever.
		h.logger.Warn().Err(err).Str("message_id", push.Message.MessageID).Msg("Dropping scan event with undecodable data")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var event model.ScanEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Warn().Err(err).Str("message_id", push.Message.MessageID).Msg("Dropping unparsable scan event")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.notifyMilestone(r, &event); err != nil {
		// A non-2xx response makes Pub/Sub redeliver the message.
		h.logger.Error().Err(err).Str("short_code", event.ShortCode).Msg("Failed to process scan event")
		http.Error(w, "Failed to process scan event", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ScanEventHandler) notifyMilestone(r *http.Request, event *model.ScanEvent) error {
	if event.OwnerID == "" || event.OwnerID == model.AnonymousUserID {
		return nil
	}

	count, err := h.scanService.CountByQRCode(r.Context(), event.QRCodeID)
	if err != nil {
		return err
	}
	if h.milestoneEvery <= 0 || count == 0 || count%h.milestoneEvery != 0 {
		return nil
	}

	owner, err := h.userService.Get(r.Context(), event.OwnerID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if owner.Email == nil || *owner.Email == "" {
		return nil
	}

	qr, err := h.qrService.GetByShortCode(r.Context(), event.ShortCode)
	if err != nil {
		if errors.Is(err, service.ErrQRCodeNotFound) {
			return nil
		}
		return err
	}

	if err := h.emailService.SendScanMilestoneEmail(*owner.Email, qr.Name, count); err != nil {
		if errors.Is(err, service.ErrEmailDisabled) {
			return nil
		}
		// Milestone mail is best-effort; do not trigger redelivery for it.
		h.logger.Warn().Err(err).Str("short_code", event.ShortCode).Msg("Failed to send milestone email")
	}
	return nil
}
