package handler

import (
	"encoding/json"
	"net/http"

	"invexqr/internal/api/v1/dto"
	"invexqr/internal/middleware"
	"invexqr/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type UploadHandler struct {
	uploadService service.UploadService
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewUploadHandler(uploadService service.UploadService, validate *validator.Validate, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		validate:      validate,
		logger:        logger,
	}
}

// RegisterRoutes mounts v1 upload routes
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/uploads", authMw(http.HandlerFunc(h.initiate)))
	mux.Handle("/uploads/confirm", authMw(http.HandlerFunc(h.confirm)))
}

// initiate godoc
// @Summary Request an asset upload slot
// @Description Returns a presigned PUT URL for uploading a QR asset (pdf, menu, audio) directly to storage.
// @Tags uploads
// @Accept json
// @Produce json
// @Param upload body dto.UploadInitiateDTO true "Upload request"
// @Success 201 {object} service.AssetUpload
// @Failure 400 {string} string "Invalid JSON payload"
// @Router /uploads [post]
func (h *UploadHandler) initiate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.UploadInitiateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	upload, err := h.uploadService.InitiateUpload(r.Context(), userID, req.Filename)
	if err != nil {
		http.Error(w, "Failed to initiate upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(upload); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// confirm godoc
// @Summary Confirm an asset upload
// @Description Verifies the uploaded object landed in storage.
// @Tags uploads
// @Accept json
// @Success 204 {string} string "No Content"
// @Failure 404 {string} string "File not found in storage"
// @Router /uploads/confirm [post]
func (h *UploadHandler) confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.UploadConfirmDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.uploadService.ConfirmUpload(r.Context(), req.Key); err != nil {
		http.Error(w, "File not found in storage", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
