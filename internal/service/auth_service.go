package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillpath-labs/skillpath-api/internal/models"
	"github.com/skillpath-labs/skillpath-api/internal/repository"
	appErrors "github.com/skillpath-labs/skillpath-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// SessionStore is the volatile key-value contract backing session
// entries and the token denylist. All operations must be atomic per key;
// GetDel is the read-and-delete-in-one-step primitive used by login's
// eager invalidation.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	GetDel(ctx context.Context, key string) (string, error)
}

type tokenCodec interface {
	Issue(user *models.User) (models.TokenPair, error)
	VerifyRefresh(token string) (*models.Claims, error)
	RefreshTTL() time.Duration
}

// AuthService orchestrates login, registration, logout and refresh-token
// rotation. It holds no mutable state of its own; the session store is
// the single source of truth for refresh-token validity.
type AuthService struct {
	users     authUserRepository
	sessions  SessionStore
	codec     tokenCodec
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, sessions SessionStore, codec tokenCodec, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{users: users, sessions: sessions, codec: codec, validator: validate, logger: logger, metrics: metrics}
}

// Login authenticates a user and returns a fresh token pair. Unknown
// email and wrong password collapse to the same client-visible error.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.ObserveAuthEvent("login_failure")
			s.logger.Debug("login rejected", zap.String("reason", "unknown_email"))
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.Active {
		s.metrics.ObserveAuthEvent("login_failure")
		s.logger.Debug("login rejected", zap.String("reason", "inactive_account"), zap.String("account_id", user.ID))
		return nil, appErrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.ObserveAuthEvent("login_failure")
		s.logger.Debug("login rejected", zap.String("reason", "password_mismatch"), zap.String("account_id", user.ID))
		return nil, appErrors.ErrInvalidCredentials
	}

	// Eagerly drop any previous refresh token for this account so a
	// repeat login cannot leave a second live session behind.
	if _, err := s.sessions.GetDel(ctx, repository.SessionKey(user.ID)); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate previous session")
		}
		s.metrics.ObserveCacheOperation("session_getdel", false)
	} else {
		s.metrics.ObserveCacheOperation("session_getdel", true)
	}

	res, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveAuthEvent("login_success")
	s.logger.Info("user logged in", zap.String("account_id", user.ID))
	return res, nil
}

// Register creates an account and immediately establishes a session for
// it, mirroring the login issuance path.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		s.metrics.ObserveAuthEvent("register_conflict")
		return nil, appErrors.ErrEmailAlreadyExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(passwordHash),
		Active:       true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	// No transaction spans the user store and the session cache: if the
	// session write fails the account exists but the caller sees an
	// error and retries login.
	res, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveAuthEvent("register_success")
	s.logger.Info("user registered", zap.String("account_id", user.ID))
	return res, nil
}

// Logout denylists the presented access token and drops the account's
// session entry. Both writes are idempotent, so repeated logouts
// succeed.
func (s *AuthService) Logout(ctx context.Context, claims *models.Claims, accessToken string) (string, error) {
	if claims == nil {
		return "", appErrors.Clone(appErrors.ErrNotAuthenticated, "not authenticated")
	}

	if err := s.sessions.SetWithTTL(ctx, repository.DenylistKey(accessToken), "revoked", s.codec.RefreshTTL()); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke access token")
	}

	if err := s.sessions.Delete(ctx, repository.SessionKey(claims.AccountID)); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop session")
	}

	s.metrics.ObserveAuthEvent("logout")
	s.logger.Info("user logged out", zap.String("account_id", claims.AccountID))
	return "You've been logged out.", nil
}

// Rotate exchanges a live refresh token for a new pair, consuming the
// old one. Every rejection collapses to the same client-visible error;
// the internal cause is only logged.
func (s *AuthService) Rotate(ctx context.Context, req models.RotateRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	sessionKey := repository.SessionKey(req.AccountID)
	stored, err := s.sessions.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			s.metrics.ObserveCacheOperation("session_get", false)
			return nil, s.rejectRotation(req.AccountID, "no_live_session", nil)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read session")
	}
	s.metrics.ObserveCacheOperation("session_get", true)

	// The store only ever holds the current token, so a mismatch means
	// the presented one was rotated out or never issued here.
	if stored != req.RefreshToken {
		return nil, s.rejectRotation(req.AccountID, "token_mismatch", nil)
	}

	if _, err := s.sessions.Get(ctx, repository.DenylistKey(req.RefreshToken)); err == nil {
		return nil, s.rejectRotation(req.AccountID, "denylisted", nil)
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read denylist")
	}

	claims, err := s.codec.VerifyRefresh(req.RefreshToken)
	if err != nil {
		return nil, s.rejectRotation(req.AccountID, "signature_or_expiry", err)
	}

	// Consume the old token before issuing the new one so an in-flight
	// duplicate cannot replay it.
	if err := s.sessions.SetWithTTL(ctx, repository.DenylistKey(req.RefreshToken), "revoked", s.codec.RefreshTTL()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to denylist refresh token")
	}
	if err := s.sessions.Delete(ctx, sessionKey); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop session")
	}

	user := &models.User{ID: claims.AccountID, Name: claims.Name, Email: claims.Email}
	res, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveAuthEvent("rotate_success")
	s.logger.Info("refresh token rotated", zap.String("account_id", claims.AccountID))
	return res, nil
}

// SessionState reports where the given account/token combination sits in
// the session lifecycle. Read-only; used for introspection and tests.
func (s *AuthService) SessionState(ctx context.Context, accountID, refreshToken string) (models.SessionState, error) {
	if _, err := s.sessions.Get(ctx, repository.DenylistKey(refreshToken)); err == nil {
		return models.SessionRevoked, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		return models.SessionNone, err
	}

	stored, err := s.sessions.Get(ctx, repository.SessionKey(accountID))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return models.SessionNone, nil
		}
		return models.SessionNone, err
	}

	if stored == refreshToken {
		return models.SessionActive, nil
	}
	return models.SessionRevoked, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	pair, err := s.codec.Issue(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue tokens")
	}

	if err := s.sessions.SetWithTTL(ctx, repository.SessionKey(user.ID), pair.RefreshToken, s.codec.RefreshTTL()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	return &models.AuthResponse{TokenPair: pair, Account: user.Public()}, nil
}

func (s *AuthService) rejectRotation(accountID, reason string, err error) error {
	s.metrics.ObserveAuthEvent("rotate_denied")
	s.logger.Warn("refresh rotation denied",
		zap.String("account_id", accountID),
		zap.String("reason", reason),
		zap.Error(err),
	)
	return appErrors.ErrInvalidRefreshToken
}
