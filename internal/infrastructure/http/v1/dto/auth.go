package dto

import (
	"time"

	"comercia/internal/domain/auth"
)

// LoginRequest for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials maps the request to domain credentials.
func (r LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{Username: r.Username, Password: r.Password}
}

// RegisterRequest for POST /auth/register (admin only).
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// ToAuthRequest maps the request to the domain register input.
func (r RegisterRequest) ToAuthRequest() auth.RegisterRequest {
	return auth.RegisterRequest{
		Username: r.Username,
		Password: r.Password,
		FullName: r.FullName,
		Role:     auth.Role(r.Role),
	}
}

// RefreshTokenRequest for POST /auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ChangePasswordRequest for POST /auth/change-password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// SetActiveRequest toggles a user account.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// TokenPairResponse carries issued tokens.
type TokenPairResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// FromTokenPair maps a domain token pair to its response shape.
func FromTokenPair(t *auth.TokenPair) TokenPairResponse {
	return TokenPairResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.ExpiresAt,
		TokenType:    t.TokenType,
	}
}

// UserResponse is the API shape of a user.
type UserResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	FullName    string     `json:"fullName,omitempty"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FromUser maps a domain user to its response shape.
func FromUser(u *auth.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Username:    u.Username,
		FullName:    u.FullName,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// LoginResponse bundles tokens with the authenticated user.
type LoginResponse struct {
	Tokens TokenPairResponse `json:"tokens"`
	User   UserResponse      `json:"user"`
}
