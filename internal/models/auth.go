package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest holds the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RotateRequest exchanges a refresh token for a new token pair.
type RotateRequest struct {
	AccountID    string `json:"accountId" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair carries the two bearer credentials issued together.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is the flat shape returned by login, register and
// rotation: the token pair plus the public account fields.
type AuthResponse struct {
	TokenPair
	Account
}

// Claims is the signed payload carried by both access and refresh
// tokens.
type Claims struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// SessionState makes the implicit per-account session machine explicit:
// no live entry, a live entry matching the presented token, or a token
// that has been rotated out or revoked.
type SessionState int

const (
	SessionNone SessionState = iota
	SessionActive
	SessionRevoked
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionRevoked:
		return "revoked"
	default:
		return "none"
	}
}
