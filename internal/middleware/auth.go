package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skillpath-labs/skillpath-api/internal/models"
	"github.com/skillpath-labs/skillpath-api/internal/repository"
	appErrors "github.com/skillpath-labs/skillpath-api/pkg/errors"
	"github.com/skillpath-labs/skillpath-api/pkg/response"
)

// ContextUserKey is the gin context key storing the decoded claims.
const ContextUserKey = "currentUser"

// ContextTokenKey is the gin context key storing the raw bearer token,
// needed by logout to denylist the exact presented string.
const ContextTokenKey = "bearerToken"

type denylistReader interface {
	Get(ctx context.Context, key string) (string, error)
}

type accessVerifier interface {
	VerifyAccess(token string) (*models.Claims, error)
}

// Auth gates protected routes: it extracts the bearer token, rejects
// denylisted or invalid tokens, and attaches the decoded identity to the
// request context. The path mutates no state.
func Auth(denylist denylistReader, codec accessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrNotAuthenticated)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Error(c, appErrors.ErrNotAuthenticated)
			c.Abort()
			return
		}
		token := parts[1]

		if _, err := denylist.Get(c.Request.Context(), repository.DenylistKey(token)); err == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrAuthorization, "token has been invalidated, please login"))
			c.Abort()
			return
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check token state"))
			c.Abort()
			return
		}

		claims, err := codec.VerifyAccess(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}
