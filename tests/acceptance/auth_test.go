package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/avoronov/identity-service/internal/dto"
	"github.com/avoronov/identity-service/internal/utils"
	"github.com/google/uuid"
)

const testJWTSecret = "test-secret-key-that-is-at-least-32-characters-long"

func (s *Suite) postJSON(path string, payload any) *http.Response {
	body, err := json.Marshal(payload)
	s.Require().NoError(err)

	resp, err := http.Post(s.BaseURL+path, "application/json", bytes.NewBuffer(body))
	s.Require().NoError(err)
	return resp
}

func (s *Suite) register(email, password string) dto.AuthResponse {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{Email: email, Password: password})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var authResp dto.AuthResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&authResp))
	return authResp
}

func (s *Suite) TestRegister_Success() {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Email:    "test@example.com",
		Password: "password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusCreated, resp.StatusCode)

	var authResp dto.AuthResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&authResp))

	s.NotEmpty(authResp.Token)
	s.Equal("Bearer", authResp.TokenType)
	s.NotZero(authResp.ExpiresIn)
	s.Equal("test@example.com", authResp.User.Email)
	s.NotEmpty(authResp.User.ID)
}

func (s *Suite) TestRegister_DuplicateEmailCaseInsensitive() {
	s.register("duplicate@example.com", "password123")

	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Email:    "DUPLICATE@example.com",
		Password: "different456",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("Conflict", errResp.Error)
}

func (s *Suite) TestRegister_InvalidEmail() {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Email:    "invalid-email",
		Password: "password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestRegister_ShortPassword() {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Email:    "test@example.com",
		Password: "short",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogin_Success() {
	s.register("login@example.com", "password123")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "login@example.com",
		Password: "password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var authResp dto.AuthResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&authResp))
	s.NotEmpty(authResp.Token)
}

func (s *Suite) TestLogin_NormalizedEmail() {
	s.register("Mixed.Case@Example.com", "password123")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "mixed.case@example.com",
		Password: "password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) TestLogin_FailuresAreIndistinguishable() {
	s.register("known@example.com", "password123")

	wrongPassword := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "known@example.com",
		Password: "wrongpassword",
	})
	defer wrongPassword.Body.Close()
	wrongBody, err := io.ReadAll(wrongPassword.Body)
	s.Require().NoError(err)

	unknownEmail := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "unknown@example.com",
		Password: "password123",
	})
	defer unknownEmail.Body.Close()
	unknownBody, err := io.ReadAll(unknownEmail.Body)
	s.Require().NoError(err)

	s.Equal(http.StatusUnauthorized, wrongPassword.StatusCode)
	s.Equal(http.StatusUnauthorized, unknownEmail.StatusCode)
	s.Equal(string(wrongBody), string(unknownBody), "Responses must not leak which emails exist")
}

func (s *Suite) TestLogin_OAuthOnlyAccount() {
	userID := s.seedOAuthUser("oauth@example.com", "google-sub-1")
	s.NotEmpty(userID)

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "oauth@example.com",
		Password: "password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestChangePassword_Success() {
	authResp := s.register("change@example.com", "password123")

	resp := s.postAuthedJSON("/api/v1/auth/change-password", authResp.Token, dto.ChangePasswordRequest{
		OldPassword: "password123",
		NewPassword: "newpassword456",
	})
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	// Old password no longer works
	oldLogin := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "change@example.com",
		Password: "password123",
	})
	defer oldLogin.Body.Close()
	s.Equal(http.StatusUnauthorized, oldLogin.StatusCode)

	// New password does
	newLogin := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "change@example.com",
		Password: "newpassword456",
	})
	defer newLogin.Body.Close()
	s.Equal(http.StatusOK, newLogin.StatusCode)
}

func (s *Suite) TestChangePassword_WrongOldPassword() {
	authResp := s.register("change@example.com", "password123")

	resp := s.postAuthedJSON("/api/v1/auth/change-password", authResp.Token, dto.ChangePasswordRequest{
		OldPassword: "wrongpassword",
		NewPassword: "newpassword456",
	})
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	// Original password still works
	login := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "change@example.com",
		Password: "password123",
	})
	defer login.Body.Close()
	s.Equal(http.StatusOK, login.StatusCode)
}

func (s *Suite) TestChangePassword_NoLocalPassword() {
	userID := s.seedOAuthUser("oauth@example.com", "google-sub-1")

	jwtManager := utils.NewJWTManager(testJWTSecret, 15*time.Minute)
	token, err := jwtManager.GenerateToken(userID, "oauth@example.com")
	s.Require().NoError(err)

	resp := s.postAuthedJSON("/api/v1/auth/change-password", token, dto.ChangePasswordRequest{
		OldPassword: "password123",
		NewPassword: "newpassword456",
	})
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestProtected_Success() {
	authResp := s.register("protected@example.com", "password123")

	resp := s.getAuthed("/api/v1/auth/protected", "Bearer "+authResp.Token)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) TestProtected_AuthorizationFailures() {
	authResp := s.register("protected@example.com", "password123")

	// Missing header
	noHeader := s.getAuthed("/api/v1/auth/protected", "")
	defer noHeader.Body.Close()
	s.Equal(http.StatusUnauthorized, noHeader.StatusCode)

	// Wrong scheme
	badScheme := s.getAuthed("/api/v1/auth/protected", "Token "+authResp.Token)
	defer badScheme.Body.Close()
	s.Equal(http.StatusUnauthorized, badScheme.StatusCode)

	// Garbage token
	garbage := s.getAuthed("/api/v1/auth/protected", "Bearer not-a-token")
	defer garbage.Body.Close()
	s.Equal(http.StatusUnauthorized, garbage.StatusCode)

	// Expired token
	expiredManager := utils.NewJWTManager(testJWTSecret, -time.Minute)
	expired, err := expiredManager.GenerateToken(authResp.User.ID, authResp.User.Email)
	s.Require().NoError(err)

	expiredResp := s.getAuthed("/api/v1/auth/protected", "Bearer "+expired)
	defer expiredResp.Body.Close()
	s.Equal(http.StatusUnauthorized, expiredResp.StatusCode)

	// Valid token whose user no longer exists
	_, err = s.Postgres.DB.Exec("DELETE FROM users WHERE id = $1", authResp.User.ID)
	s.Require().NoError(err)

	ghost := s.getAuthed("/api/v1/auth/protected", "Bearer "+authResp.Token)
	defer ghost.Body.Close()
	s.Equal(http.StatusUnauthorized, ghost.StatusCode)
}

func (s *Suite) postAuthedJSON(path, token string, payload any) *http.Response {
	body, err := json.Marshal(payload)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.BaseURL+path, bytes.NewBuffer(body))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) getAuthed(path, authorization string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, s.BaseURL+path, nil)
	s.Require().NoError(err)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

// seedOAuthUser inserts a user without a local password plus its provider link
func (s *Suite) seedOAuthUser(email, providerUserID string) string {
	userID := uuid.New().String()

	_, err := s.Postgres.DB.Exec(
		"INSERT INTO users (id, email, password_hash, is_active) VALUES ($1, $2, NULL, TRUE)",
		userID, email,
	)
	s.Require().NoError(err)

	_, err = s.Postgres.DB.Exec(
		"INSERT INTO auth_providers (id, user_id, provider, provider_user_id) VALUES ($1, $2, 'google', $3)",
		uuid.New().String(), userID, providerUserID,
	)
	s.Require().NoError(err)

	return userID
}
