package repository

import (
	"context"

	"github.com/avoronov/identity-service/internal/domain"
)

// UserRepository defines methods for user operations. Email lookups expect the
// caller to pass the normalized (trimmed, lower-cased) form.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// AuthProviderRepository defines methods for auth provider link operations
type AuthProviderRepository interface {
	Create(ctx context.Context, provider *domain.AuthProvider) error
	GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.AuthProvider, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.AuthProvider, error)
}

// TxFunc receives transaction-bound repositories. Every write performed through
// them commits or rolls back as one unit.
type TxFunc func(users UserRepository, providers AuthProviderRepository) error

// Transactor runs repository operations inside a single database transaction
type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}
