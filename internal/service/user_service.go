package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/skillpath-labs/skillpath-api/internal/models"
	appErrors "github.com/skillpath-labs/skillpath-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

// UserService exposes the read-only user collection.
type UserService struct {
	repo   userRepository
	logger *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// List returns paginated public account projections. Unless the caller
// filters explicitly, only active accounts are returned.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.Account, *models.Pagination, error) {
	if filter.Active == nil {
		active := true
		filter.Active = &active
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	accounts := make([]models.Account, 0, len(users))
	for i := range users {
		accounts = append(accounts, users[i].Public())
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	pagination := &models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}

	return accounts, pagination, nil
}
