package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/avoronov/identity-service/internal/domain"
	"github.com/avoronov/identity-service/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. It
// enforces the same uniqueness rules and commits WithinTx writes all or
// nothing, so the service-level invariants can be tested without a database.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	providers map[string]*domain.AuthProvider

	// onTxStart, when set, runs at the start of WithinTx while the store lock
	// is held. Tests use it to interleave a concurrent writer.
	onTxStart func(users repository.UserRepository, providers repository.AuthProviderRepository)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]*domain.User),
		providers: make(map[string]*domain.AuthProvider),
	}
}

func (s *fakeStore) Users() repository.UserRepository {
	return &fakeUserRepo{store: s, locked: false}
}

func (s *fakeStore) AuthProviders() repository.AuthProviderRepository {
	return &fakeProviderRepo{store: s, locked: false}
}

func (s *fakeStore) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.onTxStart != nil {
		hook := s.onTxStart
		s.onTxStart = nil
		hook(&fakeUserRepo{store: s, locked: true}, &fakeProviderRepo{store: s, locked: true})
	}

	// Stage writes on copies; merge back only on success.
	staging := &fakeStore{
		users:     make(map[string]*domain.User, len(s.users)),
		providers: make(map[string]*domain.AuthProvider, len(s.providers)),
	}
	for id, u := range s.users {
		copied := *u
		staging.users[id] = &copied
	}
	for id, p := range s.providers {
		copied := *p
		staging.providers[id] = &copied
	}

	err := fn(&fakeUserRepo{store: staging, locked: true}, &fakeProviderRepo{store: staging, locked: true})
	if err != nil {
		return err
	}

	s.users = staging.users
	s.providers = staging.providers
	return nil
}

type fakeUserRepo struct {
	store  *fakeStore
	locked bool
}

func (r *fakeUserRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	defer r.lock()()

	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return fmt.Errorf("user with email %s already exists: %w", user.Email, repository.ErrDuplicateEmail)
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	copied := *user
	r.store.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.lock()()

	for _, user := range r.store.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user with email %s not found: %w", email, repository.ErrNotFound)
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.lock()()

	user, ok := r.store.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %s not found: %w", id, repository.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	defer r.lock()()

	user, ok := r.store.users[userID]
	if !ok {
		return fmt.Errorf("user with id %s not found: %w", userID, repository.ErrNotFound)
	}
	user.PasswordHash = &passwordHash
	return nil
}

type fakeProviderRepo struct {
	store  *fakeStore
	locked bool
}

func (r *fakeProviderRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *fakeProviderRepo) Create(ctx context.Context, provider *domain.AuthProvider) error {
	defer r.lock()()

	if provider.ProviderUserID != nil {
		for _, existing := range r.store.providers {
			if existing.Provider == provider.Provider &&
				existing.ProviderUserID != nil &&
				*existing.ProviderUserID == *provider.ProviderUserID {
				return fmt.Errorf("auth provider link already exists: %w", repository.ErrDuplicateAuthProvider)
			}
		}
	}

	if provider.ID == "" {
		provider.ID = uuid.New().String()
	}

	copied := *provider
	r.store.providers[provider.ID] = &copied
	return nil
}

func (r *fakeProviderRepo) GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.AuthProvider, error) {
	defer r.lock()()

	for _, link := range r.store.providers {
		if link.Provider == provider && link.ProviderUserID != nil && *link.ProviderUserID == providerUserID {
			copied := *link
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("auth provider link not found: %w", repository.ErrNotFound)
}

func (r *fakeProviderRepo) GetByUserID(ctx context.Context, userID string) ([]*domain.AuthProvider, error) {
	defer r.lock()()

	var links []*domain.AuthProvider
	for _, link := range r.store.providers {
		if link.UserID == userID {
			copied := *link
			links = append(links, &copied)
		}
	}
	return links, nil
}

// fakeOAuthProvider skips the real authorization-code exchange and hands back
// a canned profile.
type fakeOAuthProvider struct {
	info        *OAuthUserInfo
	exchangeErr error
}

func (p *fakeOAuthProvider) Name() string {
	return domain.ProviderGoogle
}

func (p *fakeOAuthProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/consent?state=" + state
}

func (p *fakeOAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "fake-access-token"}, nil
}

func (p *fakeOAuthProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error) {
	return p.info, nil
}
