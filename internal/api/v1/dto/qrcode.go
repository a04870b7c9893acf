package dto

import (
	"encoding/json"
	"time"

	"invexqr/internal/model"
)

// QRCodeCreateDTO is used for incoming create requests. OriginalURL is
// required for url-type content; other content types derive their destination
// from Content.
type QRCodeCreateDTO struct {
	Name          string           `json:"name" validate:"required,max=200"`
	OriginalURL   string           `json:"originalUrl" validate:"omitempty,url"`
	Type          string           `json:"type" validate:"omitempty,oneof=static dynamic"`
	ContentType   string           `json:"contentType" validate:"omitempty,oneof=url text vcard phone sms email pdf menu audio"`
	Content       *model.QRContent `json:"content"`
	Style         json.RawMessage  `json:"style"`
	Customization json.RawMessage  `json:"customization"`
	Description   *string          `json:"description"`
}

// QRCodeUpdateDTO carries partial updates; nil fields are left untouched.
type QRCodeUpdateDTO struct {
	Name          *string          `json:"name" validate:"omitempty,max=200"`
	OriginalURL   *string          `json:"originalUrl" validate:"omitempty,url"`
	ContentType   *string          `json:"contentType" validate:"omitempty,oneof=url text vcard phone sms email pdf menu audio"`
	Content       *model.QRContent `json:"content"`
	Style         json.RawMessage  `json:"style"`
	Customization json.RawMessage  `json:"customization"`
	Description   *string          `json:"description"`
	IsActive      *bool            `json:"isActive"`
}

// QRCodeResponseDTO is returned in API responses. QRURL is the public
// redirect URL the printed image points at.
type QRCodeResponseDTO struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	OriginalURL   string           `json:"originalUrl"`
	ShortCode     string           `json:"shortCode"`
	QRURL         string           `json:"qrUrl"`
	Type          string           `json:"type"`
	ContentType   string           `json:"contentType"`
	Content       *model.QRContent `json:"content,omitempty"`
	Style         json.RawMessage  `json:"style,omitempty"`
	Customization json.RawMessage  `json:"customization,omitempty"`
	Description   *string          `json:"description,omitempty"`
	IsActive      bool             `json:"isActive"`
	ScanCount     *int64           `json:"scanCount,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// NewQRCodeResponseDTO maps a QR code model to its response shape.
func NewQRCodeResponseDTO(qr *model.QRCode, publicBaseURL string) QRCodeResponseDTO {
	return QRCodeResponseDTO{
		ID:            qr.ID,
		Name:          qr.Name,
		OriginalURL:   qr.OriginalURL,
		ShortCode:     qr.ShortCode,
		QRURL:         publicBaseURL + "/r/" + qr.ShortCode,
		Type:          qr.Type,
		ContentType:   qr.ContentType,
		Content:       qr.Content,
		Style:         qr.Style,
		Customization: qr.Customization,
		Description:   qr.Description,
		IsActive:      qr.IsActive,
		CreatedAt:     qr.CreatedAt,
		UpdatedAt:     qr.UpdatedAt,
	}
}
