package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/avoronov/identity-service/internal/dto"
	"github.com/avoronov/identity-service/internal/service"
	"github.com/avoronov/identity-service/pkg/observability"
	"github.com/gin-gonic/gin"
)

const (
	stateCookieName   = "oauth_state"
	stateCookieMaxAge = 300
)

// OAuthHandler handles third-party login requests
type OAuthHandler struct {
	oauthService service.OAuthService
	metrics      *observability.AuthMetrics
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(oauthService service.OAuthService, metrics *observability.AuthMetrics) *OAuthHandler {
	return &OAuthHandler{
		oauthService: oauthService,
		metrics:      metrics,
	}
}

// GoogleLogin redirects to the Google consent screen
// @Summary Initiate Google OAuth login
// @Description Redirects to the Google OAuth consent screen
// @Tags oauth
// @Success 302
// @Router /auth/google [get]
func (h *OAuthHandler) GoogleLogin(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "failed to generate state",
		})
		return
	}

	c.SetCookie(stateCookieName, state, stateCookieMaxAge, "/", "", true, true)
	c.Redirect(http.StatusFound, h.oauthService.LoginURL(state))
}

// GoogleCallback handles the provider redirect. Failures answer with an
// explicit null token rather than an opaque error body.
// @Summary Google OAuth callback
// @Description Handles the callback from Google OAuth and returns a bearer token
// @Tags oauth
// @Produce json
// @Param code query string false "OAuth authorization code"
// @Param state query string false "Anti-forgery state"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} dto.TokenResponse
// @Router /auth/google/callback [get]
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	cookieState, err := c.Cookie(stateCookieName)
	if err != nil || cookieState == "" || c.Query("state") != cookieState {
		h.metrics.Record(c.Request.Context(), "oauth_callback", "failure")
		c.JSON(http.StatusUnauthorized, dto.TokenResponse{Token: nil})
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/", "", true, true)

	code := c.Query("code")
	if code == "" {
		h.metrics.Record(c.Request.Context(), "oauth_callback", "failure")
		c.JSON(http.StatusUnauthorized, dto.TokenResponse{Token: nil})
		return
	}

	response, err := h.oauthService.HandleCallback(c.Request.Context(), code)
	if err != nil {
		h.metrics.Record(c.Request.Context(), "oauth_callback", "failure")
		c.JSON(http.StatusUnauthorized, dto.TokenResponse{Token: nil})
		return
	}

	h.metrics.Record(c.Request.Context(), "oauth_callback", "success")
	c.JSON(http.StatusOK, dto.TokenResponse{Token: &response.Token})
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
