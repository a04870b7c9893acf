package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"invexqr/internal/model"
	"invexqr/internal/pubsub"
	"invexqr/internal/repository"
)

// botMarkers are user-agent substrings that disqualify a hit from being
// recorded as a scan. The redirect itself is still served.
var botMarkers = []string{"bot", "crawler", "spider", "scraper", "headless", "curl", "wget"}

// mobileMarkers is checked before tabletMarkers, so an iPad classifies as
// mobile rather than tablet. Dashboards have always bucketed it that way and
// changing it would skew historical comparisons.
var (
	mobileMarkers = []string{"mobile", "android", "iphone", "ipad", "phone"}
	tabletMarkers = []string{"tablet", "ipad"}
)

// IsLikelyBot reports whether the user agent looks automated. Empty and
// implausibly short strings count as bots.
func IsLikelyBot(userAgent string) bool {
	if userAgent == "" || len(userAgent) < 10 {
		return true
	}
	ua := strings.ToLower(userAgent)
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// DeviceType buckets a user agent into mobile, tablet or desktop.
func DeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return model.DeviceMobile
		}
	}
	for _, marker := range tabletMarkers {
		if strings.Contains(ua, marker) {
			return model.DeviceTablet
		}
	}
	return model.DeviceDesktop
}

type ScanService interface {
	// Record persists a scan hit and fans it out. The caller has already
	// filtered bots; errors are logged here and swallowed so the redirect
	// is never blocked on analytics.
	Record(ctx context.Context, qr *model.QRCode, userAgent, ip string)
	ListByQRCode(ctx context.Context, qrCodeID int64) ([]model.Scan, error)
	CountByQRCode(ctx context.Context, qrCodeID int64) (int64, error)
}

type scanService struct {
	scanRepo   repository.ScanRepository
	geoIP      GeoIPService
	publisher  pubsub.Publisher
	topic      string
	scanLogger zerolog.Logger
}

func NewScanService(scanRepo repository.ScanRepository, geoIP GeoIPService, publisher pubsub.Publisher, topic string, logger zerolog.Logger) ScanService {
	return &scanService{
		scanRepo:   scanRepo,
		geoIP:      geoIP,
		publisher:  publisher,
		topic:      topic,
		scanLogger: logger.With().Str("service", "ScanService").Logger(),
	}
}

func (s *scanService) Record(ctx context.Context, qr *model.QRCode, userAgent, ip string) {
	loc := s.geoIP.Resolve(ctx, ip)

	scan := &model.Scan{
		QRCodeID:   qr.ID,
		UserAgent:  userAgent,
		IPAddress:  ip,
		Country:    loc.Country,
		City:       loc.City,
		DeviceType: DeviceType(userAgent),
	}
	if err := s.scanRepo.Insert(ctx, scan); err != nil {
		s.scanLogger.Error().Err(err).Str("short_code", qr.ShortCode).Msg("Failed to record scan")
		return
	}

	if s.publisher == nil {
		return
	}
	event := model.ScanEvent{
		QRCodeID:   qr.ID,
		ShortCode:  qr.ShortCode,
		OwnerID:    qr.UserID,
		Country:    scan.Country,
		DeviceType: scan.DeviceType,
		ScannedAt:  scan.ScannedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.scanLogger.Error().Err(err).Str("short_code", qr.ShortCode).Msg("Failed to marshal scan event")
		return
	}
	if _, err := s.publisher.Publish(ctx, s.topic, data); err != nil {
		s.scanLogger.Error().Err(err).Str("topic", s.topic).Str("short_code", qr.ShortCode).Msg("Failed to publish scan event")
	}
}

func (s *scanService) ListByQRCode(ctx context.Context, qrCodeID int64) ([]model.Scan, error) {
	return s.scanRepo.ListByQRCode(ctx, qrCodeID)
}

func (s *scanService) CountByQRCode(ctx context.Context, qrCodeID int64) (int64, error) {
	return s.scanRepo.CountByQRCode(ctx, qrCodeID)
}
