package model

import "time"

// AnonymousUserID is the sentinel owner for QR codes created through the public
// generator without an account. Codes created under it are not retrievable by
// the visitor later.
const AnonymousUserID = "00000000-0000-0000-0000-000000000000"

// Auth providers recorded in user_identities.
const (
	ProviderFirebase = "firebase"
	ProviderNative   = "native"
)

// User is the canonical account. One person maps to exactly one row regardless
// of which provider they sign in with; provider credentials hang off
// user_identities.
type User struct {
	ID              string    `db:"id" json:"id"`
	Email           *string   `db:"email" json:"email"`
	FirstName       *string   `db:"first_name" json:"firstName"`
	LastName        *string   `db:"last_name" json:"lastName"`
	ProfileImageURL *string   `db:"profile_image_url" json:"profileImageUrl"`
	PasswordHash    *string   `db:"password_hash" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// Identity links a (provider, provider subject) credential to a canonical user.
type Identity struct {
	Provider  string    `db:"provider" json:"provider"`
	Subject   string    `db:"provider_subject" json:"subject"`
	UserID    string    `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
