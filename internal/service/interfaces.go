package service

import (
	"context"

	"github.com/avoronov/identity-service/internal/domain"
	"github.com/avoronov/identity-service/internal/dto"
)

// AuthService defines methods for credential authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	Authorize(ctx context.Context, authorizationHeader string) (*domain.User, error)
}

// OAuthService drives the third-party login flow: consent redirect, code
// exchange and linking the resulting identity to a user.
type OAuthService interface {
	LoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*dto.AuthResponse, error)
}
