package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avoronov/identity-service/internal/domain"
	"github.com/avoronov/identity-service/internal/dto"
	"github.com/avoronov/identity-service/internal/repository"
	"github.com/avoronov/identity-service/internal/utils"
)

// authService implements AuthService interface
type authService struct {
	userRepo     repository.UserRepository
	providerRepo repository.AuthProviderRepository
	jwtManager   *utils.JWTManager
	bcryptCost   int
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	providerRepo repository.AuthProviderRepository,
	jwtManager *utils.JWTManager,
	bcryptCost int,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		providerRepo: providerRepo,
		jwtManager:   jwtManager,
		bcryptCost:   bcryptCost,
	}
}

// Register creates a user with a local password, links a "local" auth provider
// row and returns a signed token for the new identity.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := utils.NormalizeEmail(req.Email)

	// Check if user already exists
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("email %s: %w", email, domain.ErrEmailInUse)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: &passwordHash,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent registration for the same email wins the insert race;
		// surface it as the same conflict a pre-existing row would produce.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, fmt.Errorf("email %s: %w", email, domain.ErrEmailInUse)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	link := &domain.AuthProvider{
		UserID:   user.ID,
		Provider: domain.ProviderLocal,
	}
	if err := s.providerRepo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create local auth provider: %w", err)
	}

	return s.authResponse(user)
}

// Login authenticates a user by email and password. An unknown email and an
// account without a local password produce the same ErrInvalidCredentials as a
// wrong password.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := utils.NormalizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.HasLocalPassword() {
		return nil, domain.ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(req.Password, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.authResponse(user)
}

// ChangePassword verifies the old password and replaces the stored hash. The
// caller supplies an already-authorized user id.
func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasLocalPassword() {
		return domain.ErrNoLocalPassword
	}

	if !utils.CheckPasswordHash(req.OldPassword, *user.PasswordHash) {
		return domain.ErrInvalidOldPassword
	}

	newHash, err := utils.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	return nil
}

// Authorize resolves an Authorization header value to a live user. Exactly one
// store lookup per call; resolved identities are not cached.
func (s *authService) Authorize(ctx context.Context, authorizationHeader string) (*domain.User, error) {
	token, ok := strings.CutPrefix(authorizationHeader, "Bearer ")
	if !ok || token == "" {
		return nil, domain.ErrMissingOrMalformedHeader
	}

	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidOrExpiredToken, err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// authResponse issues a token and packages it with the user identity
func (s *authService) authResponse(user *domain.User) (*dto.AuthResponse, error) {
	token, err := s.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &dto.AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: s.jwtManager.GetTokenExpiry(),
		User: dto.UserInfo{
			ID:    user.ID,
			Email: user.Email,
		},
	}, nil
}
