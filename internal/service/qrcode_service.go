package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
	qrcodegen "github.com/skip2/go-qrcode"
	"github.com/speps/go-hashids/v2"

	"invexqr/internal/model"
	"invexqr/internal/repository"
)

var (
	ErrQRCodeNotFound = errors.New("qr code not found")
	ErrQRCodeInactive = errors.New("qr code is inactive")
)

// shortCodeAttempts bounds collision retries on short code generation.
const shortCodeAttempts = 3

type QRCodeService interface {
	Create(ctx context.Context, qr *model.QRCode) (*model.QRCode, error)
	// GetForUser returns the QR code only when it belongs to userID; a
	// foreign or missing code is indistinguishable to the caller.
	GetForUser(ctx context.Context, id int64, userID string) (*model.QRCode, error)
	GetByShortCode(ctx context.Context, shortCode string) (*model.QRCode, error)
	ListByUser(ctx context.Context, userID string) ([]model.QRCodeWithStats, error)
	Update(ctx context.Context, id int64, userID string, apply func(*model.QRCode)) (*model.QRCode, error)
	Delete(ctx context.Context, id int64, userID string) error
	// RenderPNG draws the QR image for a short code's public redirect URL.
	RenderPNG(qr *model.QRCode, size int) ([]byte, error)
}

type qrCodeService struct {
	repo          repository.QRCodeRepository
	shortCodes    *hashids.HashID
	publicBaseURL string
	qrLogger      zerolog.Logger
}

func NewQRCodeService(repo repository.QRCodeRepository, shortCodeSalt, publicBaseURL string, logger zerolog.Logger) (QRCodeService, error) {
	hd := hashids.NewData()
	hd.Salt = shortCodeSalt
	hd.MinLength = 8
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("init short code generator: %w", err)
	}
	return &qrCodeService{
		repo:          repo,
		shortCodes:    h,
		publicBaseURL: publicBaseURL,
		qrLogger:      logger.With().Str("service", "QRCodeService").Logger(),
	}, nil
}

func (s *qrCodeService) Create(ctx context.Context, qr *model.QRCode) (*model.QRCode, error) {
	if qr.Type == "" {
		qr.Type = model.QRTypeDynamic
	}
	if qr.ContentType == "" {
		qr.ContentType = model.ContentTypeURL
	}
	qr.IsActive = true

	for attempt := 0; attempt < shortCodeAttempts; attempt++ {
		code, err := s.generateShortCode()
		if err != nil {
			return nil, err
		}
		qr.ShortCode = code
		err = s.repo.Create(ctx, qr)
		if err == nil {
			return qr, nil
		}
		if errors.Is(err, repository.ErrShortCodeTaken) {
			s.qrLogger.Warn().Str("short_code", code).Msg("Short code collision, regenerating")
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("exhausted %d short code attempts", shortCodeAttempts)
}

func (s *qrCodeService) generateShortCode() (string, error) {
	code, err := s.shortCodes.Encode([]int{int(rand.Int31())})
	if err != nil {
		return "", fmt.Errorf("generate short code: %w", err)
	}
	return code, nil
}

func (s *qrCodeService) GetForUser(ctx context.Context, id int64, userID string) (*model.QRCode, error) {
	qr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if qr == nil || qr.UserID != userID {
		return nil, ErrQRCodeNotFound
	}
	return qr, nil
}

func (s *qrCodeService) GetByShortCode(ctx context.Context, shortCode string) (*model.QRCode, error) {
	qr, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, ErrQRCodeNotFound
	}
	return qr, nil
}

func (s *qrCodeService) ListByUser(ctx context.Context, userID string) ([]model.QRCodeWithStats, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *qrCodeService) Update(ctx context.Context, id int64, userID string, apply func(*model.QRCode)) (*model.QRCode, error) {
	qr, err := s.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	apply(qr)
	if err := s.repo.Update(ctx, qr); err != nil {
		return nil, err
	}
	return qr, nil
}

func (s *qrCodeService) Delete(ctx context.Context, id int64, userID string) error {
	if _, err := s.GetForUser(ctx, id, userID); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrQRCodeNotFound
	}
	return nil
}

func (s *qrCodeService) RenderPNG(qr *model.QRCode, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	target := s.publicBaseURL + "/r/" + qr.ShortCode
	png, err := qrcodegen.Encode(target, errorCorrectionFor(qr.Style), size)
	if err != nil {
		return nil, fmt.Errorf("render qr code %s: %w", qr.ShortCode, err)
	}
	return png, nil
}

func errorCorrectionFor(style json.RawMessage) qrcodegen.RecoveryLevel {
	if len(style) == 0 {
		return qrcodegen.Medium
	}
	var opts struct {
		ErrorCorrection string `json:"errorCorrection"`
	}
	if err := json.Unmarshal(style, &opts); err != nil {
		return qrcodegen.Medium
	}
	switch opts.ErrorCorrection {
	case "L":
		return qrcodegen.Low
	case "Q":
		return qrcodegen.High
	case "H":
		return qrcodegen.Highest
	default:
		return qrcodegen.Medium
	}
}
