package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"invexqr/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// ResolveIdentity maps a provider credential to the canonical user,
	// creating the link (and the user, if needed) on first sight.
	ResolveIdentity(ctx context.Context, provider, subject string, email *string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const userColumns = `id, email, first_name, last_name, profile_image_url, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.ProfileImageURL, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO users (id, email, first_name, last_name, profile_image_url, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, q, u.ID, u.Email, u.FirstName, u.LastName, u.ProfileImageURL, u.PasswordHash).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

// ResolveIdentity implements the one-person-one-account rule: the credential
// table is consulted first, then an email match links the credential to an
// existing account, and only then is a fresh account created.
func (r *userRepo) ResolveIdentity(ctx context.Context, provider, subject string, email *string) (*model.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin identity resolution: %w", err)
	}
	defer tx.Rollback(ctx)

	const byCredential = `
		SELECT ` + userColumns + `
		FROM users u
		JOIN user_identities i ON i.user_id = u.id
		WHERE i.provider = $1 AND i.provider_subject = $2
	`
	u, err := scanUser(tx.QueryRow(ctx, byCredential, provider, subject))
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	if u == nil && email != nil {
		byEmail := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
		u, err = scanUser(tx.QueryRow(ctx, byEmail, *email))
		if err != nil {
			return nil, fmt.Errorf("lookup user by email: %w", err)
		}
	}
	if u == nil {
		u = &model.User{ID: uuid.New().String(), Email: email}
		const insUser = `
			INSERT INTO users (id, email)
			VALUES ($1, $2)
			RETURNING created_at, updated_at
		`
		if err := tx.QueryRow(ctx, insUser, u.ID, u.Email).Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("create user for identity: %w", err)
		}
	}

	const insIdentity = `
		INSERT INTO user_identities (provider, provider_subject, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, provider_subject) DO NOTHING
	`
	if _, err := tx.Exec(ctx, insIdentity, provider, subject, u.ID); err != nil {
		return nil, fmt.Errorf("link identity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit identity resolution: %w", err)
	}
	return u, nil
}

func (r *userRepo) DeleteUser(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}
