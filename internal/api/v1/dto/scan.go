package dto

import (
	"time"

	"invexqr/internal/model"
)

// ScanResponseDTO is one recorded scan in API responses.
type ScanResponseDTO struct {
	ID         int64     `json:"id"`
	QRCodeID   int64     `json:"qrCodeId"`
	ScannedAt  time.Time `json:"scannedAt"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
	DeviceType string    `json:"deviceType"`
}

// NewScanResponseDTO maps a scan model to its response shape. The raw user
// agent and IP address stay server-side.
func NewScanResponseDTO(s *model.Scan) ScanResponseDTO {
	return ScanResponseDTO{
		ID:         s.ID,
		QRCodeID:   s.QRCodeID,
		ScannedAt:  s.ScannedAt,
		Country:    s.Country,
		City:       s.City,
		DeviceType: s.DeviceType,
	}
}
