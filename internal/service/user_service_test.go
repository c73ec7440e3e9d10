package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]models.User
	created   []*models.User
	createErr error
}

func newMockUserRepo() *mockUserRepo {
	repo := &mockUserRepo{users: make(map[string]models.User)}
	for _, u := range serviceSnapshot().Users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, role models.Role) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "new-user"
	m.created = append(m.created, user)
	return nil
}

func TestUserServiceCreateTeacher(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, newMockHierarchyRepo(), nil, nil)

	user, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Name:           " Priya ",
		Email:          "Priya@College.edu",
		Password:       "supersecret",
		Role:           models.RoleTeacher,
		CoordinatorIDs: []string{"co1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Priya", user.Name)
	assert.Equal(t, "priya@college.edu", user.Email)
	assert.Equal(t, pq.StringArray{"co1"}, user.CoordinatorIDs)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("supersecret")))
	assert.Len(t, repo.created, 1)
}

func TestUserServiceCreateReportingLines(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), newMockHierarchyRepo(), nil, nil)
	ctx := context.Background()
	base := dto.CreateUserRequest{Name: "X", Email: "x@college.edu", Password: "supersecret"}

	teacher := base
	teacher.Role = models.RoleTeacher
	teacher.CoordinatorIDs = []string{"t2"}
	_, err := svc.Create(ctx, teacher)
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	teacher.CoordinatorIDs = []string{"ghost"}
	_, err = svc.Create(ctx, teacher)
	assert.Equal(t, appErrors.ErrNotFound.Code, appCode(err))

	coordinator := base
	coordinator.Role = models.RoleCoordinator
	coordinator.DepartmentID = strPtr("dept")
	user, err := svc.Create(ctx, coordinator)
	require.NoError(t, err)
	assert.Equal(t, "dept", *user.DepartmentID)

	head := base
	head.Role = models.RoleDepartment
	_, err = svc.Create(ctx, head)
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	head.CollegeID = strPtr("col-404")
	_, err = svc.Create(ctx, head)
	assert.Equal(t, appErrors.ErrNotFound.Code, appCode(err))

	head.CollegeID = strPtr("col-2")
	user, err = svc.Create(ctx, head)
	require.NoError(t, err)
	assert.Equal(t, "col-2", *user.CollegeID)
}

func TestUserServiceCreateRejects(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, newMockHierarchyRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateUserRequest{Name: "X", Email: "not-an-email", Password: "supersecret", Role: models.RoleAdmin})
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	_, err = svc.Create(ctx, dto.CreateUserRequest{Name: "X", Email: "x@college.edu", Password: "short", Role: models.RoleAdmin})
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	repo.createErr = &pq.Error{Code: "23505"}
	_, err = svc.Create(ctx, dto.CreateUserRequest{Name: "X", Email: "x@college.edu", Password: "supersecret", Role: models.RoleAdmin})
	assert.Equal(t, appErrors.ErrConflict.Code, appCode(err))
}

func TestUserServiceList(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), newMockHierarchyRepo(), nil, nil)

	teachers, err := svc.List(context.Background(), models.RoleTeacher)
	require.NoError(t, err)
	assert.Len(t, teachers, 3)

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 8)

	_, err = svc.List(context.Background(), models.Role("JANITOR"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))
}
