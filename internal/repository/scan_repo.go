package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"invexqr/internal/model"
)

type ScanRepository interface {
	Insert(ctx context.Context, s *model.Scan) error
	ListByQRCode(ctx context.Context, qrCodeID int64) ([]model.Scan, error)
	CountByQRCode(ctx context.Context, qrCodeID int64) (int64, error)
	Overview(ctx context.Context, userID string) (*model.AnalyticsOverview, error)
	TopPerforming(ctx context.Context, userID string, limit int) ([]model.QRCodeWithStats, error)
	DeviceBreakdown(ctx context.Context, userID string) ([]model.DeviceCount, error)
	LocationBreakdown(ctx context.Context, userID string) ([]model.CountryCount, error)
}

type scanRepo struct {
	pool *pgxpool.Pool
}

func NewScanRepo(pool *pgxpool.Pool) ScanRepository {
	return &scanRepo{pool: pool}
}

func (r *scanRepo) Insert(ctx context.Context, s *model.Scan) error {
	const q = `
		INSERT INTO qr_scans (qr_code_id, user_agent, ip_address, country, city, device_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, scanned_at
	`
	err := r.pool.QueryRow(ctx, q, s.QRCodeID, s.UserAgent, s.IPAddress, s.Country, s.City, s.DeviceType).
		Scan(&s.ID, &s.ScannedAt)
	if err != nil {
		return fmt.Errorf("insert scan for qr code %d: %w", s.QRCodeID, err)
	}
	return nil
}

func (r *scanRepo) ListByQRCode(ctx context.Context, qrCodeID int64) ([]model.Scan, error) {
	const q = `
		SELECT id, qr_code_id, scanned_at, user_agent, ip_address, country, city, device_type
		FROM qr_scans
		WHERE qr_code_id = $1
		ORDER BY scanned_at DESC
	`
	rows, err := r.pool.Query(ctx, q, qrCodeID)
	if err != nil {
		return nil, fmt.Errorf("list scans for qr code %d: %w", qrCodeID, err)
	}
	defer rows.Close()

	var out []model.Scan
	for rows.Next() {
		var s model.Scan
		if err := rows.Scan(&s.ID, &s.QRCodeID, &s.ScannedAt, &s.UserAgent, &s.IPAddress, &s.Country, &s.City, &s.DeviceType); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *scanRepo) CountByQRCode(ctx context.Context, qrCodeID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM qr_scans WHERE qr_code_id = $1`, qrCodeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count scans for qr code %d: %w", qrCodeID, err)
	}
	return count, nil
}

func (r *scanRepo) Overview(ctx context.Context, userID string) (*model.AnalyticsOverview, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM qr_codes WHERE user_id = $1),
			(SELECT COUNT(*) FROM qr_scans s JOIN qr_codes q ON q.id = s.qr_code_id WHERE q.user_id = $1),
			(SELECT COUNT(*) FROM qr_scans s JOIN qr_codes q ON q.id = s.qr_code_id
			 WHERE q.user_id = $1 AND s.scanned_at >= date_trunc('day', NOW())),
			(SELECT COUNT(*) FROM qr_codes WHERE user_id = $1 AND is_active)
	`
	var o model.AnalyticsOverview
	err := r.pool.QueryRow(ctx, q, userID).Scan(&o.TotalQRCodes, &o.TotalScans, &o.ScansToday, &o.ActiveQRCodes)
	if err != nil {
		return nil, fmt.Errorf("analytics overview for user %s: %w", userID, err)
	}
	return &o, nil
}

func (r *scanRepo) TopPerforming(ctx context.Context, userID string, limit int) ([]model.QRCodeWithStats, error) {
	const q = `
		SELECT q.id, q.user_id, q.name, q.original_url, q.short_code, q.type, q.content_type,
		       q.content, q.style, q.customization, q.description, q.is_active, q.created_at, q.updated_at,
		       COUNT(s.id) AS scan_count
		FROM qr_codes q
		LEFT JOIN qr_scans s ON s.qr_code_id = q.id
		WHERE q.user_id = $1
		GROUP BY q.id
		ORDER BY COUNT(s.id) DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("top performing qr codes for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.QRCodeWithStats
	for rows.Next() {
		var qr model.QRCodeWithStats
		err := rows.Scan(&qr.ID, &qr.UserID, &qr.Name, &qr.OriginalURL, &qr.ShortCode, &qr.Type, &qr.ContentType,
			&qr.Content, &qr.Style, &qr.Customization, &qr.Description, &qr.IsActive, &qr.CreatedAt, &qr.UpdatedAt,
			&qr.ScanCount)
		if err != nil {
			return nil, fmt.Errorf("scan top performing row: %w", err)
		}
		out = append(out, qr)
	}
	return out, rows.Err()
}

func (r *scanRepo) DeviceBreakdown(ctx context.Context, userID string) ([]model.DeviceCount, error) {
	const q = `
		SELECT COALESCE(s.device_type, 'Unknown'), COUNT(*)
		FROM qr_scans s
		JOIN qr_codes q ON q.id = s.qr_code_id
		WHERE q.user_id = $1
		GROUP BY s.device_type
	`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("device breakdown for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.DeviceCount
	for rows.Next() {
		var d model.DeviceCount
		if err := rows.Scan(&d.DeviceType, &d.Count); err != nil {
			return nil, fmt.Errorf("scan device breakdown row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *scanRepo) LocationBreakdown(ctx context.Context, userID string) ([]model.CountryCount, error) {
	const q = `
		SELECT COALESCE(s.country, 'Unknown'), COUNT(*)
		FROM qr_scans s
		JOIN qr_codes q ON q.id = s.qr_code_id
		WHERE q.user_id = $1
		GROUP BY s.country
		ORDER BY COUNT(*) DESC
		LIMIT 10
	`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("location breakdown for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.CountryCount
	for rows.Next() {
		var c model.CountryCount
		if err := rows.Scan(&c.Country, &c.Count); err != nil {
			return nil, fmt.Errorf("scan location breakdown row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
