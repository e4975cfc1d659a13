package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skillpath-labs/skillpath-api/internal/models"
	"github.com/skillpath-labs/skillpath-api/pkg/config"
	appErrors "github.com/skillpath-labs/skillpath-api/pkg/errors"
)

// Codec signs and verifies the access/refresh token pair. It is
// stateless; refresh-token revocation lives in the session store, not
// here.
type Codec struct {
	cfg config.JWTConfig
	now func() time.Time
}

// NewCodec constructs a Codec from JWT configuration.
func NewCodec(cfg config.JWTConfig) *Codec {
	return &Codec{cfg: cfg, now: time.Now}
}

// RefreshTTL exposes the refresh-token lifetime, which doubles as the
// TTL for session and denylist entries.
func (c *Codec) RefreshTTL() time.Duration {
	return c.cfg.RefreshExpiry
}

// Issue produces a short-lived access token and a long-lived refresh
// token over the same identity claims.
func (c *Codec) Issue(user *models.User) (models.TokenPair, error) {
	access, err := c.sign(user, c.cfg.AccessSecret, c.cfg.AccessExpiry)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := c.sign(user, c.cfg.RefreshSecret, c.cfg.RefreshExpiry)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess validates an access token's signature and expiry.
func (c *Codec) VerifyAccess(tokenString string) (*models.Claims, error) {
	claims, err := c.verify(tokenString, c.cfg.AccessSecret)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAuthorization.Code, appErrors.ErrAuthorization.Status, appErrors.ErrAuthorization.Message)
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token's signature and expiry.
// Signature validity is necessary but not sufficient: the caller must
// also check the session store before trusting the token.
func (c *Codec) VerifyRefresh(tokenString string) (*models.Claims, error) {
	claims, err := c.verify(tokenString, c.cfg.RefreshSecret)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRefreshToken.Code, appErrors.ErrInvalidRefreshToken.Status, appErrors.ErrInvalidRefreshToken.Message)
	}
	return claims, nil
}

func (c *Codec) sign(user *models.User, secret string, ttl time.Duration) (string, error) {
	issuedAt := c.now().UTC()
	claims := &models.Claims{
		AccountID: user.ID,
		Name:      user.Name,
		Email:     user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (c *Codec) verify(tokenString, secret string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
