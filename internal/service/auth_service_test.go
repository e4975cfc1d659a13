package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillpath-labs/skillpath-api/internal/models"
	"github.com/skillpath-labs/skillpath-api/internal/repository"
	appErrors "github.com/skillpath-labs/skillpath-api/pkg/errors"
)

type fakeUserRepo struct {
	byEmail map[string]*models.User
	created []*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{byEmail: make(map[string]*models.User)}
	for _, u := range users {
		repo.byEmail[u.Email] = u
	}
	return repo
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.byEmail[user.Email] = user
	r.created = append(r.created, user)
	return nil
}

type fakeSessionStore struct {
	entries map[string]string
	sets    int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{entries: make(map[string]string)}
}

func (s *fakeSessionStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.entries[key]
	if !ok {
		return "", appErrors.ErrCacheMiss
	}
	return value, nil
}

func (s *fakeSessionStore) SetWithTTL(_ context.Context, key, value string, _ time.Duration) error {
	s.entries[key] = value
	s.sets++
	return nil
}

func (s *fakeSessionStore) Delete(_ context.Context, key string) error {
	delete(s.entries, key)
	return nil
}

func (s *fakeSessionStore) GetDel(_ context.Context, key string) (string, error) {
	value, ok := s.entries[key]
	if !ok {
		return "", appErrors.ErrCacheMiss
	}
	delete(s.entries, key)
	return value, nil
}

// fakeCodec issues unique opaque tokens and records the claims behind
// each refresh token so VerifyRefresh can replay them.
type fakeCodec struct {
	seq    int
	issued map[string]*models.Claims
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{issued: make(map[string]*models.Claims)}
}

func (c *fakeCodec) Issue(user *models.User) (models.TokenPair, error) {
	c.seq++
	pair := models.TokenPair{
		AccessToken:  fmt.Sprintf("access-%s-%d", user.ID, c.seq),
		RefreshToken: fmt.Sprintf("refresh-%s-%d", user.ID, c.seq),
	}
	c.issued[pair.RefreshToken] = &models.Claims{AccountID: user.ID, Name: user.Name, Email: user.Email}
	return pair, nil
}

func (c *fakeCodec) VerifyRefresh(token string) (*models.Claims, error) {
	claims, ok := c.issued[token]
	if !ok {
		return nil, appErrors.ErrInvalidRefreshToken
	}
	return claims, nil
}

func (c *fakeCodec) RefreshTTL() time.Duration { return 7 * 24 * time.Hour }

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeUser(t *testing.T) *models.User {
	t.Helper()
	return &models.User{
		ID:           "u1",
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: hashPassword(t, "correct horse"),
		Active:       true,
	}
}

func newTestAuthService(t *testing.T, users ...*models.User) (*AuthService, *fakeUserRepo, *fakeSessionStore) {
	t.Helper()
	repo := newFakeUserRepo(users...)
	store := newFakeSessionStore()
	svc := NewAuthService(repo, store, newFakeCodec(), nil, nil, nil)
	return svc, repo, store
}

func TestLoginStoresCurrentRefreshToken(t *testing.T) {
	svc, _, store := newTestAuthService(t, activeUser(t))

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "ann@example.com", Password: "correct horse"})
	require.NoError(t, err)

	assert.Equal(t, "u1", res.ID)
	assert.Equal(t, "ann@example.com", res.Email)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, res.RefreshToken, store.entries[repository.SessionKey("u1")])

	state, err := svc.SessionState(context.Background(), "u1", res.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, state)
}

func TestLoginNormalizesEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t, activeUser(t))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "Ann@Example.com", Password: "correct horse"})
	assert.NoError(t, err)
}

func TestLoginUniformRejection(t *testing.T) {
	svc, _, _ := newTestAuthService(t, activeUser(t))

	_, unknownErr := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	_, wrongErr := svc.Login(context.Background(), models.LoginRequest{Email: "ann@example.com", Password: "wrong"})

	// Unknown email and wrong password must be indistinguishable.
	assert.Equal(t, appErrors.ErrInvalidCredentials, unknownErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials, wrongErr)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	user := activeUser(t)
	user.Active = false
	svc, _, _ := newTestAuthService(t, user)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ann@example.com", Password: "correct horse"})
	assert.Equal(t, appErrors.ErrInvalidCredentials, err)
}

func TestLoginValidatesPayload(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: ""})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRepeatLoginInvalidatesPreviousSession(t *testing.T) {
	svc, _, _ := newTestAuthService(t, activeUser(t))
	ctx := context.Background()

	first, err := svc.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "correct horse"})
	require.NoError(t, err)

	second, err := svc.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The first session's token no longer rotates.
	_, err = svc.Rotate(ctx, models.RotateRequest{AccountID: "u1", RefreshToken: first.RefreshToken})
	assert.Equal(t, appErrors.ErrInvalidRefreshToken, err)

	state, err := svc.SessionState(ctx, "u1", first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRevoked, state)

	state, err = svc.SessionState(ctx, "u1", second.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, state)
}

func TestRegisterCreatesAccountAndSession(t *testing.T) {
	svc, repo, store := newTestAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, models.RegisterRequest{Name: "Bob", Email: "Bob@Example.com", Password: "long enough"})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	created := repo.created[0]
	assert.Equal(t, "bob@example.com", created.Email)
	assert.True(t, created.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("long enough")))

	assert.Equal(t, res.RefreshToken, store.entries[repository.SessionKey(created.ID)])
}

func TestRegisterDuplicateEmailLeavesNoSession(t *testing.T) {
	svc, repo, store := newTestAuthService(t, activeUser(t))

	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Imposter", Email: "ann@example.com", Password: "long enough"})
	assert.Equal(t, appErrors.ErrEmailAlreadyExists, err)
	assert.Empty(t, repo.created)
	assert.Zero(t, store.sets)
}

func TestRegisterValidatesPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "short"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRotateIsSingleUse(t *testing.T) {
	svc, _, _ := newTestAuthService(t, activeUser(t))
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "correct horse"})
	require.NoError(t, err)

	rotated, err := svc.Rotate(ctx, models.RotateRequest{AccountID: "u1", RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, "u1", rotated.ID)

	// Replaying the consumed token fails even though its signature is
	// still valid.
	_, err = svc.Rotate(ctx, models.RotateRequest{AccountID: "u1", RefreshToken: login.RefreshToken})
	assert.Equal(t, appErrors.ErrInvalidRefreshToken, err)

	state, err := svc.SessionState(ctx, "u1", login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRevoked, state)

	state, err = svc.SessionState(ctx, "u1", rotated.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, state)
}

func TestRotateWithoutSession(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Rotate(context.Background(), models.RotateRequest{AccountID: "u1", RefreshToken: "refresh-u1-1"})
	assert.Equal(t, appErrors.ErrInvalidRefreshToken, err)
}

func TestRotateRejectsForeignToken(t *testing.T) {
	svc, _, store := newTestAuthService(t, activeUser(t))
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Rotate(ctx, models.RotateRequest{AccountID: "u1", RefreshToken: "never-issued"})
	assert.Equal(t, appErrors.ErrInvalidRefreshToken, err)

	// The live session survives a failed rotation attempt.
	_, ok := store.entries[repository.SessionKey("u1")]
	assert.True(t, ok)
}

func TestRotateRejectsUnverifiableToken(t *testing.T) {
	svc, _, store := newTestAuthService(t, activeUser(t))
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "correct horse"})
	require.NoError(t, err)

	// A stored token the codec no longer recognizes passes the equality
	// check but fails verification.
	store.entries[repository.SessionKey("u1")] = "stale-token"

	_, err = svc.Rotate(ctx, models.RotateRequest{AccountID: "u1", RefreshToken: "stale-token"})
	assert.Equal(t, appErrors.ErrInvalidRefreshToken, err)
}

func TestLogoutRevokesAccessAndDropsSession(t *testing.T) {
	svc, _, store := newTestAuthService(t, activeUser(t))
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "correct horse"})
	require.NoError(t, err)

	claims := &models.Claims{AccountID: "u1", Name: "Ann", Email: "ann@example.com"}
	message, err := svc.Logout(ctx, claims, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "You've been logged out.", message)

	_, ok := store.entries[repository.SessionKey("u1")]
	assert.False(t, ok)
	assert.Equal(t, "revoked", store.entries[repository.DenylistKey(login.AccessToken)])

	// Rotation with the orphaned refresh token is denied.
	_, err = svc.Rotate(ctx, models.RotateRequest{AccountID: "u1", RefreshToken: login.RefreshToken})
	assert.Equal(t, appErrors.ErrInvalidRefreshToken, err)
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, _ := newTestAuthService(t, activeUser(t))
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "correct horse"})
	require.NoError(t, err)

	claims := &models.Claims{AccountID: "u1"}
	_, err = svc.Logout(ctx, claims, login.AccessToken)
	require.NoError(t, err)

	_, err = svc.Logout(ctx, claims, login.AccessToken)
	assert.NoError(t, err)
}

func TestLogoutWithoutClaims(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Logout(context.Background(), nil, "some-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotAuthenticated.Code, appErrors.FromError(err).Code)
}

func TestRegisterRotateReplayLifecycle(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, models.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "long enough"})
	require.NoError(t, err)

	rotated, err := svc.Rotate(ctx, models.RotateRequest{AccountID: registered.ID, RefreshToken: registered.RefreshToken})
	require.NoError(t, err)

	_, err = svc.Rotate(ctx, models.RotateRequest{AccountID: registered.ID, RefreshToken: registered.RefreshToken})
	assert.Equal(t, appErrors.ErrInvalidRefreshToken, err)

	_, err = svc.Rotate(ctx, models.RotateRequest{AccountID: rotated.ID, RefreshToken: rotated.RefreshToken})
	assert.NoError(t, err)
}

func TestSessionStateWithoutSession(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	state, err := svc.SessionState(context.Background(), "u1", "anything")
	require.NoError(t, err)
	assert.Equal(t, models.SessionNone, state)
}
