package handler

import (
	"errors"
	"net/http"

	"github.com/avoronov/identity-service/internal/domain"
	"github.com/avoronov/identity-service/internal/dto"
	"github.com/avoronov/identity-service/internal/service"
	"github.com/avoronov/identity-service/pkg/observability"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
	metrics     *observability.AuthMetrics
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, metrics *observability.AuthMetrics) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		metrics:     metrics,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Register a new user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	response, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.metrics.Record(c.Request.Context(), "register", "failure")
		if errors.Is(err, domain.ErrEmailInUse) {
			c.JSON(http.StatusConflict, dto.ErrorResponse{
				Error:   "Conflict",
				Message: domain.ErrEmailInUse.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "registration failed",
		})
		return
	}

	h.metrics.Record(c.Request.Context(), "register", "success")
	c.JSON(http.StatusCreated, response)
}

// Login handles user login
// @Summary Login user
// @Description Authenticate user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.metrics.Record(c.Request.Context(), "login", "failure")
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: domain.ErrInvalidCredentials.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "login failed",
		})
		return
	}

	h.metrics.Record(c.Request.Context(), "login", "success")
	c.JSON(http.StatusOK, response)
}

// ChangePassword handles password change for an authenticated user
// @Summary Change password
// @Description Replace the current local password with a new one
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ChangePasswordRequest true "Password change request"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "user not found in context",
		})
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.metrics.Record(c.Request.Context(), "change_password", "failure")
		switch {
		case errors.Is(err, domain.ErrNoLocalPassword):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Bad request",
				Message: domain.ErrNoLocalPassword.Error(),
			})
		case errors.Is(err, domain.ErrInvalidOldPassword):
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: domain.ErrInvalidOldPassword.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "Internal server error",
				Message: "failed to change password",
			})
		}
		return
	}

	h.metrics.Record(c.Request.Context(), "change_password", "success")
	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Password changed successfully",
	})
}

// Protected is a sample gated route echoing the resolved identity
// @Summary Protected route example
// @Description A protected route that requires a valid bearer token
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/protected [get]
func (h *AuthHandler) Protected(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "user not found in context",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "You are authenticated",
		"user": dto.UserInfo{
			ID:    user.ID,
			Email: user.Email,
		},
	})
}
