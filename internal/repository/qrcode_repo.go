package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"invexqr/internal/model"
)

// ErrShortCodeTaken signals a unique-constraint collision on short_code so the
// caller can regenerate and retry.
var ErrShortCodeTaken = errors.New("short code already taken")

type QRCodeRepository interface {
	Create(ctx context.Context, qr *model.QRCode) error
	GetByID(ctx context.Context, id int64) (*model.QRCode, error)
	GetByShortCode(ctx context.Context, shortCode string) (*model.QRCode, error)
	ListByUser(ctx context.Context, userID string) ([]model.QRCodeWithStats, error)
	Update(ctx context.Context, qr *model.QRCode) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type qrCodeRepo struct {
	pool *pgxpool.Pool
}

func NewQRCodeRepo(pool *pgxpool.Pool) QRCodeRepository {
	return &qrCodeRepo{pool: pool}
}

const qrColumns = `id, user_id, name, original_url, short_code, type, content_type, content, style, customization, description, is_active, created_at, updated_at`

func scanQRCode(row pgx.Row) (*model.QRCode, error) {
	var qr model.QRCode
	err := row.Scan(&qr.ID, &qr.UserID, &qr.Name, &qr.OriginalURL, &qr.ShortCode, &qr.Type, &qr.ContentType,
		&qr.Content, &qr.Style, &qr.Customization, &qr.Description, &qr.IsActive, &qr.CreatedAt, &qr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &qr, nil
}

func (r *qrCodeRepo) Create(ctx context.Context, qr *model.QRCode) error {
	const q = `
		INSERT INTO qr_codes (user_id, name, original_url, short_code, type, content_type, content, style, customization, description, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, q,
		qr.UserID, qr.Name, qr.OriginalURL, qr.ShortCode, qr.Type, qr.ContentType,
		qr.Content, qr.Style, qr.Customization, qr.Description, qr.IsActive,
	).Scan(&qr.ID, &qr.CreatedAt, &qr.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrShortCodeTaken
		}
		return fmt.Errorf("create qr code: %w", err)
	}
	return nil
}

func (r *qrCodeRepo) GetByID(ctx context.Context, id int64) (*model.QRCode, error) {
	q := `SELECT ` + qrColumns + ` FROM qr_codes WHERE id = $1`
	qr, err := scanQRCode(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("fetch qr code %d: %w", id, err)
	}
	return qr, nil
}

func (r *qrCodeRepo) GetByShortCode(ctx context.Context, shortCode string) (*model.QRCode, error) {
	q := `SELECT ` + qrColumns + ` FROM qr_codes WHERE short_code = $1`
	qr, err := scanQRCode(r.pool.QueryRow(ctx, q, shortCode))
	if err != nil {
		return nil, fmt.Errorf("fetch qr code by short code: %w", err)
	}
	return qr, nil
}

func (r *qrCodeRepo) ListByUser(ctx context.Context, userID string) ([]model.QRCodeWithStats, error) {
	const q = `
		SELECT q.id, q.user_id, q.name, q.original_url, q.short_code, q.type, q.content_type,
		       q.content, q.style, q.customization, q.description, q.is_active, q.created_at, q.updated_at,
		       COUNT(s.id) AS scan_count
		FROM qr_codes q
		LEFT JOIN qr_scans s ON s.qr_code_id = q.id
		WHERE q.user_id = $1
		GROUP BY q.id
		ORDER BY q.created_at DESC
	`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list qr codes for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []model.QRCodeWithStats
	for rows.Next() {
		var qr model.QRCodeWithStats
		err := rows.Scan(&qr.ID, &qr.UserID, &qr.Name, &qr.OriginalURL, &qr.ShortCode, &qr.Type, &qr.ContentType,
			&qr.Content, &qr.Style, &qr.Customization, &qr.Description, &qr.IsActive, &qr.CreatedAt, &qr.UpdatedAt,
			&qr.ScanCount)
		if err != nil {
			return nil, fmt.Errorf("scan qr code row: %w", err)
		}
		out = append(out, qr)
	}
	return out, rows.Err()
}

func (r *qrCodeRepo) Update(ctx context.Context, qr *model.QRCode) error {
	const q = `
		UPDATE qr_codes
		SET name = $2,
		    original_url = $3,
		    type = $4,
		    content_type = $5,
		    content = $6,
		    style = $7,
		    customization = $8,
		    description = $9,
		    is_active = $10,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, q,
		qr.ID, qr.Name, qr.OriginalURL, qr.Type, qr.ContentType,
		qr.Content, qr.Style, qr.Customization, qr.Description, qr.IsActive,
	).Scan(&qr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update qr code %d: %w", qr.ID, err)
	}
	return nil
}

func (r *qrCodeRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM qr_codes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete qr code %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
