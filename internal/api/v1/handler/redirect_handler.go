package handler

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"invexqr/internal/service"

	"github.com/rs/zerolog"
)

// RedirectHandler serves the public short-code redirect. It is mounted on the
// root mux, not under /v1, because the path is baked into printed QR images.
type RedirectHandler struct {
	qrService   service.QRCodeService
	scanService service.ScanService
	logger      zerolog.Logger
}

func NewRedirectHandler(qrService service.QRCodeService, scanService service.ScanService, logger zerolog.Logger) *RedirectHandler {
	return &RedirectHandler{
		qrService:   qrService,
		scanService: scanService,
		logger:      logger,
	}
}

// RegisterRoutes mounts the redirect routes on the root mux.
func (h *RedirectHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/r/", h.redirect)
	mux.HandleFunc("/qr/", h.legacyRedirect)
}

// redirect godoc
// @Summary Resolve a short code
// @Description Serves the destination behind a scanned QR code and records the scan. The redirect is always 302 so clients re-resolve after destination changes.
// @Tags redirect
// @Param code path string true "Short code"
// @Success 302 {string} string "Redirect to destination"
// @Success 200 {string} string "Inline text content"
// @Failure 404 {string} string "QR code not found"
// @Failure 410 {string} string "QR code is inactive"
// @Router /r/{code} [get]
func (h *RedirectHandler) redirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	code := strings.TrimPrefix(r.URL.Path, "/r/")
	if code == "" || strings.Contains(code, "/") {
		http.NotFound(w, r)
		return
	}

	qr, err := h.qrService.GetByShortCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrQRCodeNotFound) {
			http.Error(w, "QR code not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to resolve QR code", http.StatusInternalServerError)
		return
	}
	if !qr.IsActive {
		// Deactivated codes are gone, not missing; nothing is recorded.
		http.Error(w, "QR code is inactive", http.StatusGone)
		return
	}

	userAgent := r.Header.Get("User-Agent")
	if !service.IsLikelyBot(userAgent) {
		// Recording completes before the response so the scan row exists
		// by the time the client follows the redirect.
		h.scanService.Record(r.Context(), qr, userAgent, clientIP(r))
	}

	target := service.ResolveTarget(qr)
	if target.InlineHTML != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(target.InlineHTML)); err != nil {
			h.logger.Error().Err(err).Str("short_code", code).Msg("Failed to write inline content")
		}
		return
	}
	// 302 keeps clients re-resolving, so dynamic destination changes take
	// effect on already printed codes.
	http.Redirect(w, r, target.Location, http.StatusFound)
}

// legacyRedirect godoc
// @Summary Legacy short code path
// @Description Permanently redirects the old /qr/{code} path to /r/{code}.
// @Tags redirect
// @Param code path string true "Short code"
// @Success 301 {string} string "Redirect to /r/{code}"
// @Router /qr/{code} [get]
func (h *RedirectHandler) legacyRedirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	code := strings.TrimPrefix(r.URL.Path, "/qr/")
	if code == "" || strings.Contains(code, "/") {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/r/"+code, http.StatusMovedPermanently)
}

// clientIP extracts the originating IP, preferring proxy headers.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
