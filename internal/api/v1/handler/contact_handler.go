package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"invexqr/internal/api/v1/dto"
	"invexqr/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ContactHandler struct {
	emailService service.EmailService
	validate     *validator.Validate
	logger       zerolog.Logger
}

func NewContactHandler(emailService service.EmailService, validate *validator.Validate, logger zerolog.Logger) *ContactHandler {
	return &ContactHandler{
		emailService: emailService,
		validate:     validate,
		logger:       logger,
	}
}

// RegisterRoutes mounts the public contact route.
func (h *ContactHandler) RegisterRoutes(mux *http.ServeMux, _ func(http.Handler) http.Handler) {
	mux.HandleFunc("/contact", h.submit)
}

// submit godoc
// @Summary Submit the contact form
// @Description Forwards a contact form submission to the platform inbox.
// @Tags contact
// @Accept json
// @Success 202 {string} string "Accepted"
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 503 {string} string "Email delivery is not configured"
// @Router /contact [post]
func (h *ContactHandler) submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.ContactDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.emailService.SendContactEmail(req.Name, req.Email, req.Subject, req.Message); err != nil {
		if errors.Is(err, service.ErrEmailDisabled) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.logger.Error().Err(err).Msg("Failed to deliver contact email")
		http.Error(w, "Failed to deliver message", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
