package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateAuthProvider is returned when trying to create an auth provider
	// link for a (provider, provider_user_id) pair that is already claimed
	ErrDuplicateAuthProvider = errors.New("auth provider link already exists")
)
