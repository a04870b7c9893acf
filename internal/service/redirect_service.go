package service

import (
	"fmt"
	"html"
	"net/url"

	"invexqr/internal/model"
)

// RedirectTarget is the synthesized destination for a scan. Exactly one of
// Location and InlineHTML is set: Location drives a 302, InlineHTML is served
// directly with a 200.
type RedirectTarget struct {
	Location   string
	InlineHTML string
}

// ResolveTarget turns a QR code's content into its redirect destination.
// Malformed or missing content falls back to the stored original URL; this
// function never fails.
func ResolveTarget(qr *model.QRCode) RedirectTarget {
	c := qr.Content
	switch qr.ContentType {
	case model.ContentTypePhone:
		if c != nil && c.Number != "" {
			return RedirectTarget{Location: "tel:" + c.Number}
		}
	case model.ContentTypeSMS:
		if c != nil && c.Number != "" {
			target := "sms:" + c.Number
			if c.Message != "" {
				target += "?body=" + url.QueryEscape(c.Message)
			}
			return RedirectTarget{Location: target}
		}
	case model.ContentTypeEmail:
		if c != nil && c.Email != "" {
			target := "mailto:" + c.Email
			if c.Subject != "" {
				target += "?subject=" + url.QueryEscape(c.Subject)
			}
			return RedirectTarget{Location: target}
		}
	case model.ContentTypeText:
		if c != nil && c.Text != "" {
			return RedirectTarget{InlineHTML: renderTextPage(qr.Name, c.Text)}
		}
	}
	// url, vcard, pdf, menu, audio and every fallback case point at the
	// stored destination.
	return RedirectTarget{Location: qr.OriginalURL}
}

func renderTextPage(title, text string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>body{font-family:sans-serif;max-width:600px;margin:40px auto;padding:0 16px;white-space:pre-wrap}</style>
</head>
<body>%s</body>
</html>`, html.EscapeString(title), html.EscapeString(text))
}
