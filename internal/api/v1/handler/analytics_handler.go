package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"invexqr/internal/middleware"
	"invexqr/internal/model"
	"invexqr/internal/service"

	"github.com/rs/zerolog"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	logger           zerolog.Logger
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, logger: logger}
}

// RegisterRoutes mounts v1 analytics routes
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/analytics/overview", authMw(http.HandlerFunc(h.overview)))
	mux.Handle("/analytics/top", authMw(http.HandlerFunc(h.topPerforming)))
	mux.Handle("/analytics/devices", authMw(http.HandlerFunc(h.deviceBreakdown)))
	mux.Handle("/analytics/locations", authMw(http.HandlerFunc(h.locationBreakdown)))
}

func (h *AnalyticsHandler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func userIDOrFail(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return "", false
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return "", false
	}
	return userID, true
}

// overview godoc
// @Summary Dashboard overview counters
// @Description Returns total codes, total scans, scans today and active codes for the user.
// @Tags analytics
// @Produce json
// @Success 200 {object} model.AnalyticsOverview
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /analytics/overview [get]
func (h *AnalyticsHandler) overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrFail(w, r)
	if !ok {
		return
	}
	overview, err := h.analyticsService.Overview(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to compute overview: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, overview)
}

// topPerforming godoc
// @Summary Top performing QR codes
// @Tags analytics
// @Produce json
// @Param limit query int false "Number of codes to return (default 5)"
// @Success 200 {array} model.QRCodeWithStats
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /analytics/top [get]
func (h *AnalyticsHandler) topPerforming(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrFail(w, r)
	if !ok {
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	codes, err := h.analyticsService.TopPerforming(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, "Failed to fetch top codes: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if codes == nil {
		codes = []model.QRCodeWithStats{}
	}
	h.writeJSON(w, codes)
}

// deviceBreakdown godoc
// @Summary Scans grouped by device type
// @Tags analytics
// @Produce json
// @Success 200 {array} model.DeviceCount
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /analytics/devices [get]
func (h *AnalyticsHandler) deviceBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrFail(w, r)
	if !ok {
		return
	}
	breakdown, err := h.analyticsService.DeviceBreakdown(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to compute device breakdown: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if breakdown == nil {
		breakdown = []model.DeviceCount{}
	}
	h.writeJSON(w, breakdown)
}

// locationBreakdown godoc
// @Summary Scans grouped by country
// @Description Returns the ten countries with the most scans.
// @Tags analytics
// @Produce json
// @Success 200 {array} model.CountryCount
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Router /analytics/locations [get]
func (h *AnalyticsHandler) locationBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrFail(w, r)
	if !ok {
		return
	}
	breakdown, err := h.analyticsService.LocationBreakdown(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to compute location breakdown: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if breakdown == nil {
		breakdown = []model.CountryCount{}
	}
	h.writeJSON(w, breakdown)
}
