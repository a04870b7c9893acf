package model

import (
	"encoding/json"
	"time"
)

// QR code lifecycle types.
const (
	QRTypeStatic  = "static"
	QRTypeDynamic = "dynamic"
)

// Content types a QR code can carry.
const (
	ContentTypeURL   = "url"
	ContentTypeText  = "text"
	ContentTypeVCard = "vcard"
	ContentTypePhone = "phone"
	ContentTypeSMS   = "sms"
	ContentTypeEmail = "email"
	ContentTypePDF   = "pdf"
	ContentTypeMenu  = "menu"
	ContentTypeAudio = "audio"
)

// QRContent is the structured payload behind a QR code, shaped by ContentType.
// Fields irrelevant to the declared type are left empty.
type QRContent struct {
	Number  string `json:"number,omitempty"`  // phone, sms
	Message string `json:"message,omitempty"` // sms
	Email   string `json:"email,omitempty"`   // email
	Subject string `json:"subject,omitempty"` // email
	Text    string `json:"text,omitempty"`    // text
	URL     string `json:"url,omitempty"`     // pdf, menu, audio, vcard asset URL
}

// QRCode is a short-code addressable QR code. ShortCode is the only stable
// public identifier embedded in the printed image; OriginalURL stays mutable
// for dynamic codes so the destination can change without reprinting.
type QRCode struct {
	ID            int64           `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"userId"`
	Name          string          `db:"name" json:"name"`
	OriginalURL   string          `db:"original_url" json:"originalUrl"`
	ShortCode     string          `db:"short_code" json:"shortCode"`
	Type          string          `db:"type" json:"type"`
	ContentType   string          `db:"content_type" json:"contentType"`
	Content       *QRContent      `db:"content" json:"content,omitempty"`
	Style         json.RawMessage `db:"style" json:"style,omitempty"`
	Customization json.RawMessage `db:"customization" json:"customization,omitempty"`
	Description   *string         `db:"description" json:"description,omitempty"`
	IsActive      bool            `db:"is_active" json:"isActive"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// QRCodeWithStats decorates a QRCode with its aggregate scan count for
// dashboard listings.
type QRCodeWithStats struct {
	QRCode
	ScanCount int64 `json:"scanCount"`
}
