package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invexqr/internal/model"
)

func TestIsLikelyBot(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      bool
	}{
		{"empty", "", true},
		{"too short", "Mozilla", true},
		{"googlebot", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", true},
		{"crawler", "some-crawler-agent/1.0", true},
		{"spider", "Baiduspider/2.0 something something", true},
		{"scraper", "my-fancy-scraper-tool/3.1", true},
		{"headless", "Mozilla/5.0 HeadlessChrome/120.0", true},
		{"curl", "curl/7.64.1 something", true},
		{"wget", "Wget/1.21.3 (linux-gnu)", true},
		{"uppercase marker", "MEGABOT AGENT 1.0", true},
		{"regular desktop", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36", false},
		{"regular iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLikelyBot(tt.userAgent))
		})
	}
}

func TestDeviceType(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", model.DeviceMobile},
		{"android", "Mozilla/5.0 (Linux; Android 14; Pixel 8)", model.DeviceMobile},
		{"generic mobile", "Mozilla/5.0 (Mobile; rv:109.0)", model.DeviceMobile},
		// iPad matches the mobile marker list first and is bucketed as
		// mobile. Dashboards rely on that historical behavior.
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)", model.DeviceMobile},
		{"android tablet", "Mozilla/5.0 (Linux; Tablet; rv:68.0)", model.DeviceTablet},
		{"windows desktop", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", model.DeviceDesktop},
		{"mac desktop", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)", model.DeviceDesktop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeviceType(tt.userAgent))
		})
	}
}

type fakeScanRepo struct {
	inserted  []*model.Scan
	insertErr error
}

func (f *fakeScanRepo) Insert(_ context.Context, s *model.Scan) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	s.ID = int64(len(f.inserted) + 1)
	s.ScannedAt = time.Now()
	f.inserted = append(f.inserted, s)
	return nil
}

func (f *fakeScanRepo) ListByQRCode(context.Context, int64) ([]model.Scan, error) { return nil, nil }
func (f *fakeScanRepo) CountByQRCode(context.Context, int64) (int64, error) {
	return int64(len(f.inserted)), nil
}
func (f *fakeScanRepo) Overview(context.Context, string) (*model.AnalyticsOverview, error) {
	return nil, nil
}
func (f *fakeScanRepo) TopPerforming(context.Context, string, int) ([]model.QRCodeWithStats, error) {
	return nil, nil
}
func (f *fakeScanRepo) DeviceBreakdown(context.Context, string) ([]model.DeviceCount, error) {
	return nil, nil
}
func (f *fakeScanRepo) LocationBreakdown(context.Context, string) ([]model.CountryCount, error) {
	return nil, nil
}

type fixedGeoIP struct {
	loc GeoLocation
}

func (f fixedGeoIP) Resolve(context.Context, string) GeoLocation { return f.loc }

type fakePublisher struct {
	topics     []string
	payloads   [][]byte
	publishErr error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return "msg-1", nil
}

func TestScanServiceRecord(t *testing.T) {
	repo := &fakeScanRepo{}
	pub := &fakePublisher{}
	svc := NewScanService(repo, fixedGeoIP{GeoLocation{Country: "Cameroon", City: "Douala"}}, pub, "scan_events", zerolog.Nop())

	qr := &model.QRCode{ID: 7, UserID: "owner-1", ShortCode: "abc12345"}
	svc.Record(context.Background(), qr, "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", "41.202.0.1")

	require.Len(t, repo.inserted, 1)
	scan := repo.inserted[0]
	assert.Equal(t, int64(7), scan.QRCodeID)
	assert.Equal(t, "Cameroon", scan.Country)
	assert.Equal(t, "Douala", scan.City)
	assert.Equal(t, model.DeviceMobile, scan.DeviceType)

	require.Len(t, pub.topics, 1)
	assert.Equal(t, "scan_events", pub.topics[0])
	assert.Contains(t, string(pub.payloads[0]), `"short_code":"abc12345"`)
	assert.Contains(t, string(pub.payloads[0]), `"owner_id":"owner-1"`)
}

func TestScanServiceRecordInsertFailureIsSwallowed(t *testing.T) {
	repo := &fakeScanRepo{insertErr: errors.New("db down")}
	pub := &fakePublisher{}
	svc := NewScanService(repo, fixedGeoIP{unknownLocation}, pub, "scan_events", zerolog.Nop())

	// Must not panic or publish when the insert fails.
	svc.Record(context.Background(), &model.QRCode{ID: 1, ShortCode: "x1y2z3w4"}, "Mozilla/5.0 (Windows NT 10.0)", "1.2.3.4")
	assert.Empty(t, pub.topics)
}

func TestScanServiceRecordWithoutPublisher(t *testing.T) {
	repo := &fakeScanRepo{}
	svc := NewScanService(repo, fixedGeoIP{unknownLocation}, nil, "scan_events", zerolog.Nop())

	svc.Record(context.Background(), &model.QRCode{ID: 2, ShortCode: "q2w3e4r5"}, "Mozilla/5.0 (Windows NT 10.0)", "1.2.3.4")
	assert.Len(t, repo.inserted, 1)
}

func TestScanServiceRecordPublishFailureIsSwallowed(t *testing.T) {
	repo := &fakeScanRepo{}
	pub := &fakePublisher{publishErr: errors.New("pubsub unavailable")}
	svc := NewScanService(repo, fixedGeoIP{unknownLocation}, pub, "scan_events", zerolog.Nop())

	svc.Record(context.Background(), &model.QRCode{ID: 3, ShortCode: "t5y6u7i8"}, "Mozilla/5.0 (Windows NT 10.0)", "1.2.3.4")
	// The scan row still lands even when fan-out fails.
	assert.Len(t, repo.inserted, 1)
}
