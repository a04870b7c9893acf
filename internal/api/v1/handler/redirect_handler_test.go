package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invexqr/internal/model"
	"invexqr/internal/service"
)

type fakeQRService struct {
	byShortCode map[string]*model.QRCode
	byID        map[int64]*model.QRCode
}

func newFakeQRService() *fakeQRService {
	return &fakeQRService{
		byShortCode: map[string]*model.QRCode{},
		byID:        map[int64]*model.QRCode{},
	}
}

func (f *fakeQRService) add(qr *model.QRCode) {
	f.byShortCode[qr.ShortCode] = qr
	f.byID[qr.ID] = qr
}

func (f *fakeQRService) Create(_ context.Context, qr *model.QRCode) (*model.QRCode, error) {
	qr.ID = int64(len(f.byID) + 1)
	qr.ShortCode = "gen" + qr.Name
	qr.IsActive = true
	f.add(qr)
	return qr, nil
}

func (f *fakeQRService) GetForUser(_ context.Context, id int64, userID string) (*model.QRCode, error) {
	qr := f.byID[id]
	if qr == nil || qr.UserID != userID {
		return nil, service.ErrQRCodeNotFound
	}
	return qr, nil
}

func (f *fakeQRService) GetByShortCode(_ context.Context, code string) (*model.QRCode, error) {
	qr := f.byShortCode[code]
	if qr == nil {
		return nil, service.ErrQRCodeNotFound
	}
	return qr, nil
}

func (f *fakeQRService) ListByUser(context.Context, string) ([]model.QRCodeWithStats, error) {
	return nil, nil
}

func (f *fakeQRService) Update(_ context.Context, id int64, userID string, apply func(*model.QRCode)) (*model.QRCode, error) {
	qr, err := f.GetForUser(context.Background(), id, userID)
	if err != nil {
		return nil, err
	}
	apply(qr)
	return qr, nil
}

func (f *fakeQRService) Delete(_ context.Context, id int64, userID string) error {
	if _, err := f.GetForUser(context.Background(), id, userID); err != nil {
		return err
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeQRService) RenderPNG(*model.QRCode, int) ([]byte, error) {
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

type recordedScan struct {
	qrCodeID  int64
	userAgent string
	ip        string
}

type fakeScanService struct {
	recorded []recordedScan
	scans    []model.Scan
	count    int64
}

func (f *fakeScanService) Record(_ context.Context, qr *model.QRCode, userAgent, ip string) {
	f.recorded = append(f.recorded, recordedScan{qrCodeID: qr.ID, userAgent: userAgent, ip: ip})
}

func (f *fakeScanService) ListByQRCode(context.Context, int64) ([]model.Scan, error) {
	return f.scans, nil
}

func (f *fakeScanService) CountByQRCode(context.Context, int64) (int64, error) {
	return f.count, nil
}

const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

func newRedirectMux(qrSvc *fakeQRService, scanSvc *fakeScanService) *http.ServeMux {
	mux := http.NewServeMux()
	NewRedirectHandler(qrSvc, scanSvc, zerolog.Nop()).RegisterRoutes(mux)
	return mux
}

func TestRedirectUnknownCode(t *testing.T) {
	mux := newRedirectMux(newFakeQRService(), &fakeScanService{})

	req := httptest.NewRequest(http.MethodGet, "/r/missing1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRedirectInactiveCodeIsGone(t *testing.T) {
	qrSvc := newFakeQRService()
	qrSvc.add(&model.QRCode{ID: 1, ShortCode: "dead1234", OriginalURL: "https://example.com", IsActive: false})
	scanSvc := &fakeScanService{}
	mux := newRedirectMux(qrSvc, scanSvc)

	req := httptest.NewRequest(http.MethodGet, "/r/dead1234", nil)
	req.Header.Set("User-Agent", desktopUA)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Empty(t, scanSvc.recorded, "inactive codes must not record scans")
}

func TestRedirectActiveCodeRecordsAndRedirects(t *testing.T) {
	qrSvc := newFakeQRService()
	qrSvc.add(&model.QRCode{
		ID: 1, ShortCode: "live1234",
		ContentType: model.ContentTypeURL,
		OriginalURL: "https://example.com/landing",
		IsActive:    true,
	})
	scanSvc := &fakeScanService{}
	mux := newRedirectMux(qrSvc, scanSvc)

	req := httptest.NewRequest(http.MethodGet, "/r/live1234", nil)
	req.Header.Set("User-Agent", desktopUA)
	req.Header.Set("X-Forwarded-For", "41.202.0.1, 10.0.0.2")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	// 302, not 301: destinations of dynamic codes can change.
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/landing", rec.Header().Get("Location"))

	require.Len(t, scanSvc.recorded, 1)
	assert.Equal(t, int64(1), scanSvc.recorded[0].qrCodeID)
	assert.Equal(t, "41.202.0.1", scanSvc.recorded[0].ip)
}

func TestRedirectBotIsServedButNotRecorded(t *testing.T) {
	qrSvc := newFakeQRService()
	qrSvc.add(&model.QRCode{
		ID: 1, ShortCode: "live1234",
		ContentType: model.ContentTypeURL,
		OriginalURL: "https://example.com/landing",
		IsActive:    true,
	})
	scanSvc := &fakeScanService{}
	mux := newRedirectMux(qrSvc, scanSvc)

	for _, ua := range []string{"", "curl/7.64.1 something", "Mozilla/5.0 (compatible; Googlebot/2.1)"} {
		req := httptest.NewRequest(http.MethodGet, "/r/live1234", nil)
		if ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code, "bot still gets the redirect for %q", ua)
	}
	assert.Empty(t, scanSvc.recorded, "bots must not be recorded")
}

func TestRedirectTextContentServedInline(t *testing.T) {
	qrSvc := newFakeQRService()
	qrSvc.add(&model.QRCode{
		ID: 1, ShortCode: "text1234",
		Name:        "Note",
		ContentType: model.ContentTypeText,
		Content:     &model.QRContent{Text: "hello scanner"},
		IsActive:    true,
	})
	mux := newRedirectMux(qrSvc, &fakeScanService{})

	req := httptest.NewRequest(http.MethodGet, "/r/text1234", nil)
	req.Header.Set("User-Agent", desktopUA)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "hello scanner")
}

func TestLegacyPathRedirectsPermanently(t *testing.T) {
	mux := newRedirectMux(newFakeQRService(), &fakeScanService{})

	req := httptest.NewRequest(http.MethodGet, "/qr/live1234", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/r/live1234", rec.Header().Get("Location"))
}

func TestRedirectRejectsNonGet(t *testing.T) {
	mux := newRedirectMux(newFakeQRService(), &fakeScanService{})

	req := httptest.NewRequest(http.MethodPost, "/r/live1234", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
