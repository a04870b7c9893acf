package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	qrcodegen "github.com/skip2/go-qrcode"

	"invexqr/internal/model"
	"invexqr/internal/repository"
)

type fakeQRCodeRepo struct {
	byID        map[int64]*model.QRCode
	byShortCode map[string]*model.QRCode
	nextID      int64
	failCreates int
	deleted     []int64
}

func newFakeQRCodeRepo() *fakeQRCodeRepo {
	return &fakeQRCodeRepo{
		byID:        map[int64]*model.QRCode{},
		byShortCode: map[string]*model.QRCode{},
	}
}

func (f *fakeQRCodeRepo) Create(_ context.Context, qr *model.QRCode) error {
	if f.failCreates > 0 {
		f.failCreates--
		return repository.ErrShortCodeTaken
	}
	if _, exists := f.byShortCode[qr.ShortCode]; exists {
		return repository.ErrShortCodeTaken
	}
	f.nextID++
	qr.ID = f.nextID
	f.byID[qr.ID] = qr
	f.byShortCode[qr.ShortCode] = qr
	return nil
}

func (f *fakeQRCodeRepo) GetByID(_ context.Context, id int64) (*model.QRCode, error) {
	return f.byID[id], nil
}

func (f *fakeQRCodeRepo) GetByShortCode(_ context.Context, code string) (*model.QRCode, error) {
	return f.byShortCode[code], nil
}

func (f *fakeQRCodeRepo) ListByUser(context.Context, string) ([]model.QRCodeWithStats, error) {
	return nil, nil
}

func (f *fakeQRCodeRepo) Update(_ context.Context, qr *model.QRCode) error {
	f.byID[qr.ID] = qr
	return nil
}

func (f *fakeQRCodeRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return true, nil
}

func newTestQRCodeService(t *testing.T, repo repository.QRCodeRepository) QRCodeService {
	t.Helper()
	svc, err := NewQRCodeService(repo, "test-salt", "https://invexqr.test", zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func TestQRCodeServiceCreateGeneratesShortCode(t *testing.T) {
	repo := newFakeQRCodeRepo()
	svc := newTestQRCodeService(t, repo)

	created, err := svc.Create(context.Background(), &model.QRCode{
		UserID:      "user-1",
		Name:        "Landing page",
		OriginalURL: "https://example.com",
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(created.ShortCode), 8)
	assert.True(t, isAlphanumeric(created.ShortCode), "short code must be alphanumeric: %q", created.ShortCode)
	assert.True(t, created.IsActive)
	assert.Equal(t, model.QRTypeDynamic, created.Type)
	assert.Equal(t, model.ContentTypeURL, created.ContentType)
}

func TestQRCodeServiceCreateRetriesOnCollision(t *testing.T) {
	repo := newFakeQRCodeRepo()
	repo.failCreates = 2
	svc := newTestQRCodeService(t, repo)

	created, err := svc.Create(context.Background(), &model.QRCode{
		UserID:      "user-1",
		Name:        "Retry me",
		OriginalURL: "https://example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ShortCode)
}

func TestQRCodeServiceCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := newFakeQRCodeRepo()
	repo.failCreates = shortCodeAttempts
	svc := newTestQRCodeService(t, repo)

	_, err := svc.Create(context.Background(), &model.QRCode{
		UserID:      "user-1",
		Name:        "Never lands",
		OriginalURL: "https://example.com",
	})
	assert.Error(t, err)
}

func TestQRCodeServiceGetForUserHidesForeignCodes(t *testing.T) {
	repo := newFakeQRCodeRepo()
	svc := newTestQRCodeService(t, repo)

	created, err := svc.Create(context.Background(), &model.QRCode{
		UserID:      "owner",
		Name:        "Mine",
		OriginalURL: "https://example.com",
	})
	require.NoError(t, err)

	_, err = svc.GetForUser(context.Background(), created.ID, "intruder")
	assert.ErrorIs(t, err, ErrQRCodeNotFound)

	got, err := svc.GetForUser(context.Background(), created.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestQRCodeServiceDeleteChecksOwnership(t *testing.T) {
	repo := newFakeQRCodeRepo()
	svc := newTestQRCodeService(t, repo)

	created, err := svc.Create(context.Background(), &model.QRCode{
		UserID:      "owner",
		Name:        "Mine",
		OriginalURL: "https://example.com",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), created.ID, "intruder"), ErrQRCodeNotFound)
	require.NoError(t, svc.Delete(context.Background(), created.ID, "owner"))
	assert.Equal(t, []int64{created.ID}, repo.deleted)
}

func TestQRCodeServiceRenderPNG(t *testing.T) {
	repo := newFakeQRCodeRepo()
	svc := newTestQRCodeService(t, repo)

	png, err := svc.RenderPNG(&model.QRCode{ShortCode: "abc12345"}, 0)
	require.NoError(t, err)
	// PNG magic bytes
	assert.True(t, bytes.HasPrefix(png, []byte{0x89, 'P', 'N', 'G'}))
}

func TestErrorCorrectionFor(t *testing.T) {
	tests := []struct {
		name  string
		style string
		want  qrcodegen.RecoveryLevel
	}{
		{"empty style", "", qrcodegen.Medium},
		{"low", `{"errorCorrection":"L"}`, qrcodegen.Low},
		{"medium", `{"errorCorrection":"M"}`, qrcodegen.Medium},
		{"quartile", `{"errorCorrection":"Q"}`, qrcodegen.High},
		{"high", `{"errorCorrection":"H"}`, qrcodegen.Highest},
		{"unknown value", `{"errorCorrection":"Z"}`, qrcodegen.Medium},
		{"malformed json", `{not json`, qrcodegen.Medium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCorrectionFor(json.RawMessage(tt.style)))
		})
	}
}
