package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/avoronov/identity-service/internal/domain"
	"github.com/avoronov/identity-service/internal/dto"
	"github.com/avoronov/identity-service/internal/repository"
	"github.com/avoronov/identity-service/internal/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// OAuthUserInfo is the subset of a third-party profile the linking flow needs.
// Email may be empty; some providers do not release it.
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
}

// OAuthProvider abstracts the third-party side of the authorization-code flow
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error)
}

// GoogleOAuthProvider implements OAuthProvider against Google's OIDC endpoints
type GoogleOAuthProvider struct {
	cfg *oauth2.Config
}

// NewGoogleOAuthProvider creates a Google OAuth provider
func NewGoogleOAuthProvider(clientID, clientSecret, redirectURL string) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}}
}

func (p *GoogleOAuthProvider) Name() string {
	return domain.ProviderGoogle
}

func (p *GoogleOAuthProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *GoogleOAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.cfg.Exchange(ctx, code)
}

func (p *GoogleOAuthProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error) {
	client := p.cfg.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status: %d", resp.StatusCode)
	}

	var body struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	if body.Sub == "" {
		return nil, fmt.Errorf("missing subject in userinfo response")
	}

	return &OAuthUserInfo{ProviderUserID: body.Sub, Email: body.Email}, nil
}

// oauthService implements OAuthService interface
type oauthService struct {
	provider     OAuthProvider
	userRepo     repository.UserRepository
	providerRepo repository.AuthProviderRepository
	tx           repository.Transactor
	jwtManager   *utils.JWTManager
}

// NewOAuthService creates a new OAuth linking service
func NewOAuthService(
	provider OAuthProvider,
	userRepo repository.UserRepository,
	providerRepo repository.AuthProviderRepository,
	tx repository.Transactor,
	jwtManager *utils.JWTManager,
) OAuthService {
	return &oauthService{
		provider:     provider,
		userRepo:     userRepo,
		providerRepo: providerRepo,
		tx:           tx,
		jwtManager:   jwtManager,
	}
}

// LoginURL returns the provider's consent screen URL
func (s *oauthService) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// HandleCallback exchanges the authorization code, resolves or creates the
// linked user and returns a signed token for that identity.
func (s *oauthService) HandleCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	info, err := s.provider.FetchUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	user, err := s.findOrCreateUser(ctx, info)
	if err != nil {
		return nil, err
	}

	signed, err := s.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &dto.AuthResponse{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresIn: s.jwtManager.GetTokenExpiry(),
		User: dto.UserInfo{
			ID:    user.ID,
			Email: user.Email,
		},
	}, nil
}

// findOrCreateUser resolves a (provider, provider_user_id) pair to its owning
// user, creating the User and AuthProvider rows atomically on first login. A
// user without any auth provider could never authenticate again, so partial
// writes must not survive.
func (s *oauthService) findOrCreateUser(ctx context.Context, info *OAuthUserInfo) (*domain.User, error) {
	link, err := s.providerRepo.GetByProvider(ctx, s.provider.Name(), info.ProviderUserID)
	if err == nil {
		return s.ownerOf(ctx, link)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up auth provider: %w", err)
	}

	// First login needs a usable email to key the new account. Treat a
	// malformed address from the provider the same as a missing one.
	email := utils.NormalizeEmail(info.Email)
	if !utils.ValidateEmail(email) {
		return nil, domain.ErrMissingProviderEmail
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: nil,
		IsActive:     true,
	}

	err = s.tx.WithinTx(ctx, func(users repository.UserRepository, providers repository.AuthProviderRepository) error {
		if err := users.Create(ctx, user); err != nil {
			return err
		}

		providerUserID := info.ProviderUserID
		return providers.Create(ctx, &domain.AuthProvider{
			UserID:         user.ID,
			Provider:       s.provider.Name(),
			ProviderUserID: &providerUserID,
		})
	})

	if err != nil {
		// A concurrent callback for the same identity may have committed first,
		// tripping either uniqueness constraint depending on which insert ran.
		// Re-check the provider link: if the winner's row is there, use it; if
		// not, the email belongs to an unrelated account and the error stands.
		if errors.Is(err, repository.ErrDuplicateAuthProvider) || errors.Is(err, repository.ErrDuplicateEmail) {
			link, lookupErr := s.providerRepo.GetByProvider(ctx, s.provider.Name(), info.ProviderUserID)
			if lookupErr == nil {
				return s.ownerOf(ctx, link)
			}
			if !errors.Is(lookupErr, repository.ErrNotFound) {
				return nil, fmt.Errorf("failed to resolve concurrent auth provider link: %w", lookupErr)
			}
		}
		return nil, fmt.Errorf("failed to create user with auth provider: %w", err)
	}

	return user, nil
}

func (s *oauthService) ownerOf(ctx context.Context, link *domain.AuthProvider) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, link.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user for auth provider: %w", err)
	}
	return user, nil
}
