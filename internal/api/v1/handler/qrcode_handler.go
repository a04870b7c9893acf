package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"invexqr/internal/api/v1/dto"
	"invexqr/internal/middleware"
	"invexqr/internal/model"
	"invexqr/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type QRCodeHandler struct {
	qrService     service.QRCodeService
	scanService   service.ScanService
	subService    service.SubscriptionService
	validate      *validator.Validate
	publicBaseURL string
	logger        zerolog.Logger
}

func NewQRCodeHandler(qrService service.QRCodeService, scanService service.ScanService, subService service.SubscriptionService, validate *validator.Validate, publicBaseURL string, logger zerolog.Logger) *QRCodeHandler {
	return &QRCodeHandler{
		qrService:     qrService,
		scanService:   scanService,
		subService:    subService,
		validate:      validate,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

// RegisterRoutes mounts v1 QR code routes. The public creation route skips
// auth; codes created there belong to the shared anonymous owner.
func (h *QRCodeHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/qr-codes", authMw(http.HandlerFunc(h.handleCollection)))
	mux.Handle("/qr-codes/", authMw(http.HandlerFunc(h.handleItem)))
	mux.HandleFunc("/public/qr-codes", h.createPublic)
}

func (h *QRCodeHandler) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *QRCodeHandler) handleItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/qr-codes/")
	parts := strings.Split(rest, "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.get(w, r, id)
	case len(parts) == 1 && (r.Method == http.MethodPut || r.Method == http.MethodPatch):
		h.update(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case len(parts) == 2 && parts[1] == "image" && r.Method == http.MethodGet:
		h.image(w, r, id)
	case len(parts) == 2 && parts[1] == "scans" && r.Method == http.MethodGet:
		h.listScans(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *QRCodeHandler) decodeCreate(w http.ResponseWriter, r *http.Request) (*model.QRCode, bool) {
	var req dto.QRCodeCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if (req.ContentType == "" || req.ContentType == model.ContentTypeURL) && req.OriginalURL == "" {
		http.Error(w, "Validation failed: originalUrl is required for url content", http.StatusBadRequest)
		return nil, false
	}

	return &model.QRCode{
		Name:          req.Name,
		OriginalURL:   req.OriginalURL,
		Type:          req.Type,
		ContentType:   req.ContentType,
		Content:       req.Content,
		Style:         req.Style,
		Customization: req.Customization,
		Description:   req.Description,
	}, true
}

// create godoc
// @Summary Create a QR code
// @Description Creates a QR code with a generated short code owned by the authenticated user.
// @Tags qr-codes
// @Accept json
// @Produce json
// @Param qrCode body dto.QRCodeCreateDTO true "QR code creation request"
// @Success 201 {object} dto.QRCodeResponseDTO
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /qr-codes [post]
func (h *QRCodeHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	qr, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}
	qr.UserID = userID

	created, err := h.qrService.Create(r.Context(), qr)
	if err != nil {
		http.Error(w, "Failed to create QR code: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(dto.NewQRCodeResponseDTO(created, h.publicBaseURL)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// createPublic godoc
// @Summary Create a QR code without an account
// @Description Creates a QR code owned by the shared anonymous account. The code works like any other but cannot be managed afterwards.
// @Tags qr-codes
// @Accept json
// @Produce json
// @Param qrCode body dto.QRCodeCreateDTO true "QR code creation request"
// @Success 201 {object} dto.QRCodeResponseDTO
// @Failure 400 {string} string "Invalid JSON payload"
// @Router /public/qr-codes [post]
func (h *QRCodeHandler) createPublic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	qr, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}
	qr.UserID = model.AnonymousUserID

	created, err := h.qrService.Create(r.Context(), qr)
	if err != nil {
		http.Error(w, "Failed to create QR code: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(dto.NewQRCodeResponseDTO(created, h.publicBaseURL)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// list godoc
// @Summary List the user's QR codes
// @Description Returns the user's QR codes with scan counts, newest first.
// @Tags qr-codes
// @Produce json
// @Success 200 {array} dto.QRCodeResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /qr-codes [get]
func (h *QRCodeHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	codes, err := h.qrService.ListByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to list QR codes: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.QRCodeResponseDTO, 0, len(codes))
	for i := range codes {
		item := dto.NewQRCodeResponseDTO(&codes[i].QRCode, h.publicBaseURL)
		count := codes[i].ScanCount
		item.ScanCount = &count
		resp = append(resp, item)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// get godoc
// @Summary Get a QR code
// @Tags qr-codes
// @Produce json
// @Param id path int true "QR code ID"
// @Success 200 {object} dto.QRCodeResponseDTO
// @Failure 404 {string} string "QR code not found"
// @Router /qr-codes/{id} [get]
func (h *QRCodeHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	qr, err := h.qrService.GetForUser(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, service.ErrQRCodeNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dto.NewQRCodeResponseDTO(qr, h.publicBaseURL)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// update godoc
// @Summary Update a QR code
// @Description Applies a partial update. The short code never changes, so printed images stay valid.
// @Tags qr-codes
// @Accept json
// @Produce json
// @Param id path int true "QR code ID"
// @Param qrCode body dto.QRCodeUpdateDTO true "Fields to update"
// @Success 200 {object} dto.QRCodeResponseDTO
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 404 {string} string "QR code not found"
// @Router /qr-codes/{id} [put]
func (h *QRCodeHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.QRCodeUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	qr, err := h.qrService.Update(r.Context(), id, userID, func(qr *model.QRCode) {
		if req.Name != nil {
			qr.Name = *req.Name
		}
		if req.OriginalURL != nil {
			qr.OriginalURL = *req.OriginalURL
		}
		if req.ContentType != nil {
			qr.ContentType = *req.ContentType
		}
		if req.Content != nil {
			qr.Content = req.Content
		}
		if req.Style != nil {
			qr.Style = req.Style
		}
		if req.Customization != nil {
			qr.Customization = req.Customization
		}
		if req.Description != nil {
			qr.Description = req.Description
		}
		if req.IsActive != nil {
			qr.IsActive = *req.IsActive
		}
	})
	if err != nil {
		if errors.Is(err, service.ErrQRCodeNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update QR code: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dto.NewQRCodeResponseDTO(qr, h.publicBaseURL)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// delete godoc
// @Summary Delete a QR code
// @Tags qr-codes
// @Param id path int true "QR code ID"
// @Success 204 {string} string "No Content"
// @Failure 404 {string} string "QR code not found"
// @Router /qr-codes/{id} [delete]
func (h *QRCodeHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.qrService.Delete(r.Context(), id, userID); err != nil {
		if errors.Is(err, service.ErrQRCodeNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete QR code: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// image godoc
// @Summary Render the QR code image
// @Description Returns the QR code as a PNG pointing at its public redirect URL.
// @Tags qr-codes
// @Produce png
// @Param id path int true "QR code ID"
// @Param size query int false "Image size in pixels (default 256)"
// @Success 200 {file} binary
// @Failure 404 {string} string "QR code not found"
// @Router /qr-codes/{id}/image [get]
func (h *QRCodeHandler) image(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	qr, err := h.qrService.GetForUser(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, service.ErrQRCodeNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	size := 0
	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 2048 {
			size = s
		}
	}

	png, err := h.qrService.RenderPNG(qr, size)
	if err != nil {
		http.Error(w, "Failed to render QR code: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write image response")
	}
}

// listScans godoc
// @Summary List raw scans for a QR code
// @Description Returns the individual scan events. Requires an active premium subscription.
// @Tags qr-codes
// @Produce json
// @Param id path int true "QR code ID"
// @Success 200 {array} dto.ScanResponseDTO
// @Failure 403 {string} string "Premium subscription required"
// @Failure 404 {string} string "QR code not found"
// @Router /qr-codes/{id}/scans [get]
func (h *QRCodeHandler) listScans(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	premium, err := h.subService.IsPremium(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to check subscription: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !premium {
		http.Error(w, "Premium subscription required", http.StatusForbidden)
		return
	}

	qr, err := h.qrService.GetForUser(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, service.ErrQRCodeNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	scans, err := h.scanService.ListByQRCode(r.Context(), qr.ID)
	if err != nil {
		http.Error(w, "Failed to list scans: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.ScanResponseDTO, 0, len(scans))
	for i := range scans {
		resp = append(resp, dto.NewScanResponseDTO(&scans[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
