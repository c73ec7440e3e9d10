package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, role models.Role) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type collegeLookup interface {
	FindCollege(ctx context.Context, id string) (*models.College, error)
}

// UserService manages accounts and their reporting lines.
type UserService struct {
	repo      userRepository
	colleges  collegeLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, colleges collegeLookup, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, colleges: colleges, validator: validate, logger: logger}
}

// List returns users, optionally of one role.
func (s *UserService) List(ctx context.Context, role models.Role) ([]models.User, error) {
	if role != "" && !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	users, err := s.repo.List(ctx, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// Create registers a user. Teachers may report to coordinators, coordinators
// to a department head, and a department head owns one college.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user := &models.User{
		Role:  req.Role,
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
	}
	switch req.Role {
	case models.RoleTeacher:
		for _, id := range req.CoordinatorIDs {
			if err := s.expectRole(ctx, id, models.RoleCoordinator); err != nil {
				return nil, err
			}
		}
		user.CoordinatorIDs = req.CoordinatorIDs
	case models.RoleCoordinator:
		if req.DepartmentID != nil {
			if err := s.expectRole(ctx, *req.DepartmentID, models.RoleDepartment); err != nil {
				return nil, err
			}
			user.DepartmentID = req.DepartmentID
		}
	case models.RoleDepartment:
		if req.CollegeID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "college_id is required for a department head")
		}
		if _, err := s.colleges.FindCollege(ctx, *req.CollegeID); err != nil {
			return nil, mapRepoError(err, "college not found", "failed to load college")
		}
		user.CollegeID = req.CollegeID
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user.PasswordHash = hash

	if err := s.repo.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *UserService) expectRole(ctx context.Context, id string, role models.Role) error {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, fmt.Sprintf("user %s not found", id), "failed to load user")
	}
	if u.Role != role {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("user %s is not a %s", id, strings.ToLower(string(role))))
	}
	return nil
}
