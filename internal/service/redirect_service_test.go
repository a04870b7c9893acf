package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invexqr/internal/model"
)

func TestResolveTargetURL(t *testing.T) {
	qr := &model.QRCode{ContentType: model.ContentTypeURL, OriginalURL: "https://example.com/landing"}
	target := ResolveTarget(qr)
	assert.Equal(t, "https://example.com/landing", target.Location)
	assert.Empty(t, target.InlineHTML)
}

func TestResolveTargetPhone(t *testing.T) {
	qr := &model.QRCode{
		ContentType: model.ContentTypePhone,
		OriginalURL: "https://example.com/fallback",
		Content:     &model.QRContent{Number: "+237600000000"},
	}
	assert.Equal(t, "tel:+237600000000", ResolveTarget(qr).Location)
}

func TestResolveTargetSMS(t *testing.T) {
	qr := &model.QRCode{
		ContentType: model.ContentTypeSMS,
		Content:     &model.QRContent{Number: "+237600000000", Message: "Hello there & welcome"},
	}
	assert.Equal(t, "sms:+237600000000?body=Hello+there+%26+welcome", ResolveTarget(qr).Location)
}

func TestResolveTargetSMSWithoutMessage(t *testing.T) {
	qr := &model.QRCode{
		ContentType: model.ContentTypeSMS,
		Content:     &model.QRContent{Number: "+237600000000"},
	}
	assert.Equal(t, "sms:+237600000000", ResolveTarget(qr).Location)
}

func TestResolveTargetEmail(t *testing.T) {
	qr := &model.QRCode{
		ContentType: model.ContentTypeEmail,
		Content:     &model.QRContent{Email: "hello@example.com", Subject: "Table booking"},
	}
	assert.Equal(t, "mailto:hello@example.com?subject=Table+booking", ResolveTarget(qr).Location)
}

func TestResolveTargetEmailWithoutSubject(t *testing.T) {
	qr := &model.QRCode{
		ContentType: model.ContentTypeEmail,
		Content:     &model.QRContent{Email: "hello@example.com"},
	}
	assert.Equal(t, "mailto:hello@example.com", ResolveTarget(qr).Location)
}

func TestResolveTargetTextInline(t *testing.T) {
	qr := &model.QRCode{
		Name:        "Wifi password",
		ContentType: model.ContentTypeText,
		Content:     &model.QRContent{Text: "ssid: cafe / pass: <secret>"},
	}
	target := ResolveTarget(qr)
	assert.Empty(t, target.Location)
	assert.Contains(t, target.InlineHTML, "ssid: cafe / pass: &lt;secret&gt;")
	assert.Contains(t, target.InlineHTML, "<title>Wifi password</title>")
}

func TestResolveTargetAssetTypesUseOriginalURL(t *testing.T) {
	for _, contentType := range []string{model.ContentTypeVCard, model.ContentTypePDF, model.ContentTypeMenu, model.ContentTypeAudio} {
		qr := &model.QRCode{ContentType: contentType, OriginalURL: "https://cdn.example.com/asset"}
		assert.Equal(t, "https://cdn.example.com/asset", ResolveTarget(qr).Location, contentType)
	}
}

func TestResolveTargetMalformedContentFallsBack(t *testing.T) {
	tests := []struct {
		name string
		qr   *model.QRCode
	}{
		{"phone without number", &model.QRCode{ContentType: model.ContentTypePhone, OriginalURL: "https://example.com", Content: &model.QRContent{}}},
		{"phone with nil content", &model.QRCode{ContentType: model.ContentTypePhone, OriginalURL: "https://example.com"}},
		{"sms without number", &model.QRCode{ContentType: model.ContentTypeSMS, OriginalURL: "https://example.com", Content: &model.QRContent{Message: "hi"}}},
		{"email without address", &model.QRCode{ContentType: model.ContentTypeEmail, OriginalURL: "https://example.com", Content: &model.QRContent{Subject: "hi"}}},
		{"text without body", &model.QRCode{ContentType: model.ContentTypeText, OriginalURL: "https://example.com", Content: &model.QRContent{}}},
		{"unknown content type", &model.QRCode{ContentType: "hologram", OriginalURL: "https://example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := ResolveTarget(tt.qr)
			assert.Equal(t, "https://example.com", target.Location)
			assert.Empty(t, target.InlineHTML)
		})
	}
}
