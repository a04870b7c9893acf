package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"invexqr/internal/model"
)

// Migrate creates the schema if it does not exist and seeds the sentinel owner
// for anonymous public creations. Statements are idempotent so startup can run
// them unconditionally.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id text PRIMARY KEY,
			email text UNIQUE,
			first_name text,
			last_name text,
			profile_image_url text,
			password_hash text,
			created_at timestamptz NOT NULL DEFAULT NOW(),
			updated_at timestamptz NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS user_identities (
			provider text NOT NULL,
			provider_subject text NOT NULL,
			user_id text NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at timestamptz NOT NULL DEFAULT NOW(),
			PRIMARY KEY (provider, provider_subject)
		)`,
		`CREATE TABLE IF NOT EXISTS qr_codes (
			id bigserial PRIMARY KEY,
			user_id text NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name text NOT NULL,
			original_url text NOT NULL,
			short_code text NOT NULL UNIQUE,
			type text NOT NULL,
			content_type text NOT NULL DEFAULT 'url',
			content jsonb,
			style jsonb DEFAULT '{}',
			customization jsonb DEFAULT '{}',
			description text,
			is_active boolean NOT NULL DEFAULT true,
			created_at timestamptz NOT NULL DEFAULT NOW(),
			updated_at timestamptz NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS qr_scans (
			id bigserial PRIMARY KEY,
			qr_code_id bigint NOT NULL REFERENCES qr_codes(id) ON DELETE CASCADE,
			scanned_at timestamptz NOT NULL DEFAULT NOW(),
			user_agent text,
			ip_address text,
			country text,
			city text,
			device_type text
		)`,
		`CREATE INDEX IF NOT EXISTS idx_qr_scans_qr_code_id ON qr_scans (qr_code_id)`,
		`CREATE TABLE IF NOT EXISTS user_subscriptions (
			user_id text PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			paypal_subscription_id text,
			plan_id text,
			status text NOT NULL,
			starts_at timestamptz NOT NULL DEFAULT NOW(),
			created_at timestamptz NOT NULL DEFAULT NOW(),
			updated_at timestamptz NOT NULL DEFAULT NOW()
		)`,
	}
	for _, q := range stmts {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}

	const seed = `
		INSERT INTO users (id, first_name)
		VALUES ($1, 'Anonymous')
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := pool.Exec(ctx, seed, model.AnonymousUserID); err != nil {
		return fmt.Errorf("seed anonymous owner: %w", err)
	}
	return nil
}
