package domain

import "time"

// Names of the supported authentication providers.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User represents a user in the system. PasswordHash is nil for accounts
// created through a third-party provider that never set a local password.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// HasLocalPassword reports whether the user can authenticate with a password.
func (u *User) HasLocalPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// AuthProvider links a user to one authentication method. ProviderUserID is
// the third party's identifier for the identity and is nil for "local" rows.
type AuthProvider struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Provider       string    `json:"provider" db:"provider"`
	ProviderUserID *string   `json:"provider_user_id" db:"provider_user_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
