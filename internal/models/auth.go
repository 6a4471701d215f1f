package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a new account. The role cannot be changed afterwards.
type RegisterRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=64"`
	Password string   `json:"password" validate:"required,min=6"`
	Email    string   `json:"email" validate:"required,email"`
	Name     string   `json:"name" validate:"required"`
	Role     UserRole `json:"role" validate:"required,oneof=admin researcher"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   int64     `json:"expiresIn"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	jwt.RegisteredClaims
}

// Caller is the explicit identity every domain operation receives.
type Caller struct {
	ID   string
	Role UserRole
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// IsResearcher reports whether the caller holds the researcher role.
func (c Caller) IsResearcher() bool { return c.Role == RoleResearcher }

// Caller converts token claims into the domain identity.
func (c *JWTClaims) Caller() Caller {
	if c == nil {
		return Caller{}
	}
	return Caller{ID: c.UserID, Role: c.Role}
}
