package handler

import (
	"errors"
	"net/http"

	"github.com/avoronov/identity-service/internal/domain"
	"github.com/avoronov/identity-service/internal/dto"
	"github.com/avoronov/identity-service/internal/service"
	"github.com/gin-gonic/gin"
)

const userContextKey = "current_user"

// AuthMiddleware resolves the Authorization header to a live user and attaches
// it to the request context. Each failure kind keeps its own message so callers
// can tell a malformed header from a bad token from a vanished user.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authService.Authorize(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			var message string
			switch {
			case errors.Is(err, domain.ErrMissingOrMalformedHeader):
				message = domain.ErrMissingOrMalformedHeader.Error()
			case errors.Is(err, domain.ErrInvalidOrExpiredToken):
				message = domain.ErrInvalidOrExpiredToken.Error()
			case errors.Is(err, domain.ErrUserNotFound):
				message = domain.ErrUserNotFound.Error()
			default:
				message = "authorization failed"
			}

			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: message,
			})
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the user attached by AuthMiddleware, or nil
func CurrentUser(c *gin.Context) *domain.User {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}

	user, ok := value.(*domain.User)
	if !ok {
		return nil
	}
	return user
}
