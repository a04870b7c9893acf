package service

import (
	"context"

	"github.com/rs/zerolog"

	"invexqr/internal/model"
	"invexqr/internal/repository"
)

// topPerformingDefault is the limit used when the caller does not ask for a
// specific number of codes.
const topPerformingDefault = 5

// AnalyticsService serves the dashboard aggregates.
type AnalyticsService interface {
	Overview(ctx context.Context, userID string) (*model.AnalyticsOverview, error)
	TopPerforming(ctx context.Context, userID string, limit int) ([]model.QRCodeWithStats, error)
	DeviceBreakdown(ctx context.Context, userID string) ([]model.DeviceCount, error)
	LocationBreakdown(ctx context.Context, userID string) ([]model.CountryCount, error)
}

type analyticsService struct {
	scanRepo repository.ScanRepository
	logger   zerolog.Logger
}

func NewAnalyticsService(scanRepo repository.ScanRepository, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		scanRepo: scanRepo,
		logger:   logger.With().Str("service", "AnalyticsService").Logger(),
	}
}

func (s *analyticsService) Overview(ctx context.Context, userID string) (*model.AnalyticsOverview, error) {
	overview, err := s.scanRepo.Overview(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to compute analytics overview")
		return nil, err
	}
	return overview, nil
}

func (s *analyticsService) TopPerforming(ctx context.Context, userID string, limit int) ([]model.QRCodeWithStats, error) {
	if limit <= 0 {
		limit = topPerformingDefault
	}
	codes, err := s.scanRepo.TopPerforming(ctx, userID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch top performing codes")
		return nil, err
	}
	return codes, nil
}

func (s *analyticsService) DeviceBreakdown(ctx context.Context, userID string) ([]model.DeviceCount, error) {
	breakdown, err := s.scanRepo.DeviceBreakdown(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to compute device breakdown")
		return nil, err
	}
	return breakdown, nil
}

func (s *analyticsService) LocationBreakdown(ctx context.Context, userID string) ([]model.CountryCount, error) {
	breakdown, err := s.scanRepo.LocationBreakdown(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to compute location breakdown")
		return nil, err
	}
	return breakdown, nil
}
