package domain

import "errors"

// Authentication error kinds. Business-rule failures are expected outcomes and
// travel as these sentinels so the transport layer can map each kind to a
// status code with errors.Is.
var (
	// ErrEmailInUse is returned when registering with an email that already has an account
	ErrEmailInUse = errors.New("email already in use")

	// ErrInvalidCredentials is returned for a wrong password, an unknown email
	// or an account without a local password. The three cases are intentionally
	// indistinguishable so responses do not leak which emails exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoLocalPassword is returned when changing the password of an account
	// that only has third-party identities attached
	ErrNoLocalPassword = errors.New("no local password set for this account")

	// ErrInvalidOldPassword is returned when the current password does not match on change
	ErrInvalidOldPassword = errors.New("old password is incorrect")

	// ErrMissingProviderEmail is returned when a third-party profile carries no email
	ErrMissingProviderEmail = errors.New("no email found in provider profile")

	// ErrMissingOrMalformedHeader is returned for anything that is not "Bearer <token>"
	ErrMissingOrMalformedHeader = errors.New("missing or invalid authorization header")

	// ErrInvalidOrExpiredToken is returned for signature or expiry failures
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// ErrUserNotFound is returned when a token's subject no longer resolves to a user
	ErrUserNotFound = errors.New("user not found")
)
