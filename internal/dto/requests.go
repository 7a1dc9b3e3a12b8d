package dto

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=8" validate:"required,min=8"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=8" validate:"required,min=8"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required,min=8" validate:"required,min=8"`
	NewPassword string `json:"new_password" binding:"required,min=8" validate:"required,min=8"`
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	Token     string   `json:"token"`
	TokenType string   `json:"token_type"`
	ExpiresIn int      `json:"expires_in"`
	User      UserInfo `json:"user"`
}

// TokenResponse carries only a token. Token is a pointer so a failed OAuth
// callback can answer with an explicit null.
type TokenResponse struct {
	Token *string `json:"token"`
}

// UserInfo represents user information in response
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
