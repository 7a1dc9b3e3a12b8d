package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avoronov/identity-service/internal/domain"
	"github.com/avoronov/identity-service/pkg/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// authProviderRepository implements AuthProviderRepository interface
type authProviderRepository struct {
	db querier
}

// NewAuthProviderRepository creates a new auth provider repository
func NewAuthProviderRepository(db *database.Postgres) AuthProviderRepository {
	return &authProviderRepository{db: db.DB}
}

// Create creates a new auth provider link
func (r *authProviderRepository) Create(ctx context.Context, provider *domain.AuthProvider) error {
	query := `
		INSERT INTO auth_providers (id, user_id, provider, provider_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	// Generate UUID if not provided
	if provider.ID == "" {
		provider.ID = uuid.New().String()
	}

	if provider.CreatedAt.IsZero() {
		provider.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		provider.ID,
		provider.UserID,
		provider.Provider,
		provider.ProviderUserID,
		provider.CreatedAt,
	)

	if err != nil {
		// Check for unique constraint violation (duplicate provider + provider_user_id)
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("auth provider link already exists: %w", ErrDuplicateAuthProvider)
			}
		}
		return fmt.Errorf("failed to create auth provider: %w", err)
	}

	return nil
}

// GetByProvider retrieves an auth provider link by provider and provider user ID
func (r *authProviderRepository) GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.AuthProvider, error) {
	query := `
		SELECT id, user_id, provider, provider_user_id, created_at
		FROM auth_providers
		WHERE provider = $1 AND provider_user_id = $2
	`

	authProvider := &domain.AuthProvider{}
	var providerID sql.NullString

	err := r.db.QueryRowContext(ctx, query, provider, providerUserID).Scan(
		&authProvider.ID,
		&authProvider.UserID,
		&authProvider.Provider,
		&providerID,
		&authProvider.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("auth provider link not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get auth provider: %w", err)
	}

	if providerID.Valid {
		authProvider.ProviderUserID = &providerID.String
	}

	return authProvider, nil
}

// GetByUserID retrieves all auth provider links for a user
func (r *authProviderRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.AuthProvider, error) {
	query := `
		SELECT id, user_id, provider, provider_user_id, created_at
		FROM auth_providers
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth providers by user id: %w", err)
	}
	defer rows.Close()

	var providers []*domain.AuthProvider
	for rows.Next() {
		provider := &domain.AuthProvider{}
		var providerID sql.NullString

		err := rows.Scan(
			&provider.ID,
			&provider.UserID,
			&provider.Provider,
			&providerID,
			&provider.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auth provider: %w", err)
		}

		if providerID.Valid {
			provider.ProviderUserID = &providerID.String
		}

		providers = append(providers, provider)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate auth providers: %w", err)
	}

	return providers, nil
}
