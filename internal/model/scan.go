package model

import "time"

// Device categories derived from the scanning user agent.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// Scan is one recorded, non-bot redirect hit against a short code. Rows are
// append-only and only ever read through aggregate queries.
type Scan struct {
	ID         int64     `db:"id" json:"id"`
	QRCodeID   int64     `db:"qr_code_id" json:"qrCodeId"`
	ScannedAt  time.Time `db:"scanned_at" json:"scannedAt"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	Country    string    `db:"country" json:"country"`
	City       string    `db:"city" json:"city"`
	DeviceType string    `db:"device_type" json:"deviceType"`
}

// ScanEvent is the Pub/Sub payload published after a scan row is persisted.
type ScanEvent struct {
	QRCodeID   int64     `json:"qr_code_id"`
	ShortCode  string    `json:"short_code"`
	OwnerID    string    `json:"owner_id"`
	Country    string    `json:"country"`
	DeviceType string    `json:"device_type"`
	ScannedAt  time.Time `json:"scanned_at"`
}

// Analytics aggregates for the dashboard overview.
type AnalyticsOverview struct {
	TotalQRCodes  int64 `json:"totalQRCodes"`
	TotalScans    int64 `json:"totalScans"`
	ScansToday    int64 `json:"scansToday"`
	ActiveQRCodes int64 `json:"activeQRCodes"`
}

// DeviceCount is one bucket of the device breakdown.
type DeviceCount struct {
	DeviceType string `json:"deviceType"`
	Count      int64  `json:"count"`
}

// CountryCount is one bucket of the location breakdown.
type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}
