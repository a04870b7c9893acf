package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invexqr/internal/api/v1/dto"
	"invexqr/internal/middleware"
	"invexqr/internal/model"
)

type fakeSubscriptionService struct {
	premium bool
}

func (f *fakeSubscriptionService) Activate(context.Context, string, string) (*model.Subscription, error) {
	return nil, nil
}

func (f *fakeSubscriptionService) GetSubscription(context.Context, string) (*model.Subscription, error) {
	return nil, nil
}

func (f *fakeSubscriptionService) IsPremium(context.Context, string) (bool, error) {
	return f.premium, nil
}

func (f *fakeSubscriptionService) ApplyWebhookStatus(context.Context, string, string) error {
	return nil
}

// injectUser is a stand-in for the auth middleware in handler tests.
func injectUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newQRCodeMux(qrSvc *fakeQRService, scanSvc *fakeScanService, subSvc *fakeSubscriptionService, userID string) *http.ServeMux {
	validate := validator.New(validator.WithRequiredStructEnabled())
	h := NewQRCodeHandler(qrSvc, scanSvc, subSvc, validate, "https://invexqr.test", zerolog.Nop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, injectUser(userID))
	return mux
}

func TestQRCodeCreate(t *testing.T) {
	qrSvc := newFakeQRService()
	mux := newQRCodeMux(qrSvc, &fakeScanService{}, &fakeSubscriptionService{}, "user-1")

	body := `{"name":"Landing","originalUrl":"https://example.com/landing"}`
	req := httptest.NewRequest(http.MethodPost, "/qr-codes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.QRCodeResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Landing", resp.Name)
	assert.NotEmpty(t, resp.ShortCode)
	assert.Equal(t, "https://invexqr.test/r/"+resp.ShortCode, resp.QRURL)
	assert.Equal(t, "user-1", qrSvc.byID[resp.ID].UserID)
}

func TestQRCodeCreateValidation(t *testing.T) {
	mux := newQRCodeMux(newFakeQRService(), &fakeScanService{}, &fakeSubscriptionService{}, "user-1")

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"originalUrl":"https://example.com"}`},
		{"invalid url", `{"name":"x","originalUrl":"not-a-url"}`},
		{"url content without destination", `{"name":"x","contentType":"url"}`},
		{"unknown content type", `{"name":"x","originalUrl":"https://example.com","contentType":"hologram"}`},
		{"not json", `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/qr-codes", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestQRCodePublicCreateUsesAnonymousOwner(t *testing.T) {
	qrSvc := newFakeQRService()
	validate := validator.New(validator.WithRequiredStructEnabled())
	h := NewQRCodeHandler(qrSvc, &fakeScanService{}, &fakeSubscriptionService{}, validate, "https://invexqr.test", zerolog.Nop())
	mux := http.NewServeMux()
	// No auth middleware at all on the public route.
	h.RegisterRoutes(mux, func(next http.Handler) http.Handler { return next })

	body := `{"name":"Anon","originalUrl":"https://example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/public/qr-codes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.QRCodeResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, model.AnonymousUserID, qrSvc.byID[resp.ID].UserID)
}

func TestQRCodeGetHidesForeignCodes(t *testing.T) {
	qrSvc := newFakeQRService()
	qrSvc.add(&model.QRCode{ID: 9, UserID: "someone-else", ShortCode: "aaaa1111", IsActive: true})
	mux := newQRCodeMux(qrSvc, &fakeScanService{}, &fakeSubscriptionService{}, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/qr-codes/9", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	// Foreign codes look exactly like missing ones.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQRCodeUpdateTogglesActive(t *testing.T) {
	qrSvc := newFakeQRService()
	qrSvc.add(&model.QRCode{ID: 3, UserID: "user-1", ShortCode: "bbbb2222", OriginalURL: "https://example.com", IsActive: true})
	mux := newQRCodeMux(qrSvc, &fakeScanService{}, &fakeSubscriptionService{}, "user-1")

	req := httptest.NewRequest(http.MethodPut, "/qr-codes/3", strings.NewReader(`{"isActive":false}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, qrSvc.byID[3].IsActive)
	// The short code survives every update.
	assert.Equal(t, "bbbb2222", qrSvc.byID[3].ShortCode)
}

func TestQRCodeScansRequirePremium(t *testing.T) {
	qrSvc := newFakeQRService()
	qrSvc.add(&model.QRCode{ID: 4, UserID: "user-1", ShortCode: "cccc3333", IsActive: true})
	scanSvc := &fakeScanService{scans: []model.Scan{{ID: 1, QRCodeID: 4, ScannedAt: time.Now(), Country: "Cameroon", DeviceType: model.DeviceMobile}}}

	mux := newQRCodeMux(qrSvc, scanSvc, &fakeSubscriptionService{premium: false}, "user-1")
	req := httptest.NewRequest(http.MethodGet, "/qr-codes/4/scans", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	mux = newQRCodeMux(qrSvc, scanSvc, &fakeSubscriptionService{premium: true}, "user-1")
	req = httptest.NewRequest(http.MethodGet, "/qr-codes/4/scans", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var scans []dto.ScanResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&scans))
	require.Len(t, scans, 1)
	assert.Equal(t, "Cameroon", scans[0].Country)
}

func TestQRCodeImage(t *testing.T) {
	qrSvc := newFakeQRService()
	qrSvc.add(&model.QRCode{ID: 5, UserID: "user-1", ShortCode: "dddd4444", IsActive: true})
	mux := newQRCodeMux(qrSvc, &fakeScanService{}, &fakeSubscriptionService{}, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/qr-codes/5/image?size=512", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}
