package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpath-labs/skillpath-api/internal/models"
	"github.com/skillpath-labs/skillpath-api/internal/repository"
	appErrors "github.com/skillpath-labs/skillpath-api/pkg/errors"
	"github.com/skillpath-labs/skillpath-api/pkg/response"
)

type fakeDenylist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeDenylist) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.revoked[key] {
		return "revoked", nil
	}
	return "", appErrors.ErrCacheMiss
}

type fakeVerifier struct {
	claims *models.Claims
	err    error
}

func (f *fakeVerifier) VerifyAccess(string) (*models.Claims, error) {
	return f.claims, f.err
}

func gateRequest(t *testing.T, denylist *fakeDenylist, verifier *fakeVerifier, authorization string) (*httptest.ResponseRecorder, *models.Claims, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var gotClaims *models.Claims
	var gotToken string

	r := gin.New()
	r.GET("/protected", Auth(denylist, verifier), func(c *gin.Context) {
		if value, ok := c.Get(ContextUserKey); ok {
			gotClaims = value.(*models.Claims)
		}
		if value, ok := c.Get(ContextTokenKey); ok {
			gotToken = value.(string)
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w, gotClaims, gotToken
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	return envelope.Error.Code
}

func TestAuthAttachesClaimsAndToken(t *testing.T) {
	denylist := &fakeDenylist{}
	verifier := &fakeVerifier{claims: &models.Claims{AccountID: "u1", Name: "Ann"}}

	w, claims, token := gateRequest(t, denylist, verifier, "Bearer good-token")

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "u1", claims.AccountID)
	assert.Equal(t, "good-token", token)
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	w, claims, _ := gateRequest(t, &fakeDenylist{}, &fakeVerifier{}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrNotAuthenticated.Code, decodeErrorCode(t, w))
	assert.Nil(t, claims)
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	for _, header := range []string{"good-token", "Basic abc", "Bearer "} {
		w, _, _ := gateRequest(t, &fakeDenylist{}, &fakeVerifier{}, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestAuthRejectsDenylistedToken(t *testing.T) {
	denylist := &fakeDenylist{revoked: map[string]bool{repository.DenylistKey("stale-token"): true}}
	verifier := &fakeVerifier{claims: &models.Claims{AccountID: "u1"}}

	w, claims, _ := gateRequest(t, denylist, verifier, "Bearer stale-token")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, appErrors.ErrAuthorization.Code, decodeErrorCode(t, w))
	assert.Nil(t, claims)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	verifier := &fakeVerifier{err: appErrors.ErrAuthorization}

	w, claims, _ := gateRequest(t, &fakeDenylist{}, verifier, "Bearer bad-token")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, claims)
}

func TestAuthSurfacesDenylistStoreFailure(t *testing.T) {
	denylist := &fakeDenylist{err: errors.New("connection refused")}
	verifier := &fakeVerifier{claims: &models.Claims{AccountID: "u1"}}

	w, claims, _ := gateRequest(t, denylist, verifier, "Bearer good-token")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Nil(t, claims)
}
