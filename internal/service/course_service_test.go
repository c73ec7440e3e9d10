package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type mockCourseRepo struct {
	created           []models.Course
	updated           []models.Course
	teachers          map[string]models.TeacherAssignment
	statusEnrollments []models.Enrollment
	status            models.CourseStatus
	updateErr         error
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = "generated"
	m.created = append(m.created, *course)
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, *course)
	return nil
}

func (m *mockCourseRepo) UpdateTeachers(ctx context.Context, id string, assignment models.TeacherAssignment) error {
	if m.teachers == nil {
		m.teachers = make(map[string]models.TeacherAssignment)
	}
	m.teachers[id] = assignment
	return nil
}

func (m *mockCourseRepo) UpdateStatus(ctx context.Context, id string, status models.CourseStatus, enrollments []models.Enrollment) (int, error) {
	m.status = status
	m.statusEnrollments = enrollments
	return len(enrollments), nil
}

type mockEnrollmentRepo struct {
	items []models.Enrollment
}

func (m *mockEnrollmentRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	return m.items, nil
}

func newTestCourseService(snap *models.Snapshot) (*CourseService, *mockCourseRepo, *memoryCache) {
	repo := &mockCourseRepo{}
	cache := newMemoryCache()
	return NewCourseService(repo, &mockEnrollmentRepo{}, newTestSnapshots(snap), cache, nil, nil), repo, cache
}

func validCourseRequest() dto.CourseRequest {
	return dto.CourseRequest{
		ProgramID:         "prog-1",
		BatchID:           "batch-1",
		Code:              "CS102",
		Name:              "Data Structures",
		Semester:          2,
		Target:            60,
		InternalWeightage: 40,
		ExternalWeightage: 60,
		AttainmentLevels:  models.AttainmentLevels{Level1: 40, Level2: 50, Level3: 60},
	}
}

func TestCourseServiceListFiltersByVisibility(t *testing.T) {
	svc, _, _ := newTestCourseService(serviceSnapshot())
	ctx := context.Background()

	courses, err := svc.List(ctx, models.CourseFilter{}, claimsFor("t2"))
	require.NoError(t, err)
	assert.Len(t, courses, 1)

	courses, err = svc.List(ctx, models.CourseFilter{Status: models.CourseStatusFuture}, claimsFor("admin"))
	require.NoError(t, err)
	assert.Empty(t, courses)

	courses, err = svc.List(ctx, models.CourseFilter{}, claimsFor("t3"))
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestCourseServiceCreate(t *testing.T) {
	svc, repo, _ := newTestCourseService(serviceSnapshot())
	req := validCourseRequest()
	req.InternalWeightage = 50
	req.Teachers = &dto.TeacherAssignmentRequest{Kind: models.AssignmentSingle, TeacherID: "t3"}

	detail, err := svc.Create(context.Background(), req, claimsFor("co1"))
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.CourseStatusFuture, repo.created[0].Status)
	assert.Equal(t, "t3", repo.created[0].TeacherID)
	require.Len(t, detail.Warnings, 1)
	assert.Contains(t, detail.Warnings[0], "weightage")
}

func TestCourseServiceCreateRejectsBadInput(t *testing.T) {
	svc, repo, _ := newTestCourseService(serviceSnapshot())
	ctx := context.Background()

	req := validCourseRequest()
	req.Code = ""
	_, err := svc.Create(ctx, req, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	req = validCourseRequest()
	req.BatchID = "batch-2"
	_, err = svc.Create(ctx, req, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	req = validCourseRequest()
	req.Teachers = &dto.TeacherAssignmentRequest{Kind: models.AssignmentPerSection, Sections: map[string]string{"sec-z": "t1"}}
	_, err = svc.Create(ctx, req, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	req = validCourseRequest()
	req.Teachers = &dto.TeacherAssignmentRequest{Kind: models.AssignmentSingle, TeacherID: "co1"}
	_, err = svc.Create(ctx, req, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	_, err = svc.Create(ctx, validCourseRequest(), claimsFor("t1"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appCode(err))

	_, err = svc.Create(ctx, validCourseRequest(), claimsFor("dept2"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appCode(err))

	assert.Empty(t, repo.created)
}

func TestCourseServiceUpdate(t *testing.T) {
	svc, repo, cache := newTestCourseService(serviceSnapshot())
	ctx := context.Background()

	req := validCourseRequest()
	req.Code = "CS101"
	req.AttainmentLevels = models.AttainmentLevels{Level1: 70, Level2: 50, Level3: 60}
	detail, err := svc.Update(ctx, "crs-1", req, claimsFor("admin"))
	require.NoError(t, err)
	require.Len(t, repo.updated, 1)
	assert.Equal(t, "Data Structures", repo.updated[0].Name)
	assert.NotEmpty(t, detail.Warnings)
	assert.Equal(t, []string{attainmentCachePattern}, cache.invalidated)

	req.BatchID = "batch-2"
	_, err = svc.Update(ctx, "crs-1", req, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	repo.updateErr = sql.ErrNoRows
	_, err = svc.Update(ctx, "crs-1", validCourseRequest(), claimsFor("admin"))
	assert.Equal(t, appErrors.ErrNotFound.Code, appCode(err))
}

func TestCourseServiceUpdateRejectsAssignmentBeforeWriting(t *testing.T) {
	svc, repo, cache := newTestCourseService(serviceSnapshot())
	ctx := context.Background()

	req := validCourseRequest()
	req.Code = "CHANGED"
	req.Teachers = &dto.TeacherAssignmentRequest{Kind: models.AssignmentSingle, TeacherID: "admin"}
	_, err := svc.Update(ctx, "crs-1", req, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))
	assert.Empty(t, repo.updated)
	assert.Empty(t, cache.invalidated)

	req.Teachers = &dto.TeacherAssignmentRequest{Kind: models.AssignmentSingle, TeacherID: "t3"}
	detail, err := svc.Update(ctx, "crs-1", req, claimsFor("admin"))
	require.NoError(t, err)
	require.Len(t, repo.updated, 1)
	assert.Equal(t, "CHANGED", repo.updated[0].Code)
	assert.Equal(t, models.SingleTeacher("t3"), repo.updated[0].TeacherAssignment)
	assert.Equal(t, "t3", detail.TeacherAssignment.TeacherID)
	assert.Empty(t, repo.teachers)
}

func TestCourseServiceUpdateTeachers(t *testing.T) {
	svc, repo, _ := newTestCourseService(serviceSnapshot())

	course, err := svc.UpdateTeachers(context.Background(), "crs-1", dto.TeacherAssignmentRequest{
		Kind:      models.AssignmentPerSection,
		TeacherID: "t1",
		Sections:  map[string]string{"sec-a": "t3"},
	}, claimsFor("admin"))
	require.NoError(t, err)
	assert.Equal(t, "t3", course.TeacherFor("sec-a"))
	assert.Equal(t, "t1", course.TeacherFor("sec-b"))
	assert.Equal(t, models.AssignmentPerSection, repo.teachers["crs-1"].Kind)
}

func TestCourseServiceActivationEnrollsSectionStudents(t *testing.T) {
	snap := serviceSnapshot()
	snap.Courses[0].Status = models.CourseStatusFuture
	svc, repo, cache := newTestCourseService(snap)

	resp, err := svc.UpdateStatus(context.Background(), "crs-1", dto.CourseStatusRequest{Status: models.CourseStatusActive}, claimsFor("admin"))
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusActive, repo.status)
	require.Len(t, repo.statusEnrollments, 1)
	assert.Equal(t, "s7", repo.statusEnrollments[0].StudentID)
	assert.Equal(t, "sec-b", *repo.statusEnrollments[0].SectionID)
	assert.Equal(t, 1, resp.EnrollmentsCreated)
	assert.Equal(t, models.CourseStatusActive, resp.Course.Status)
	assert.NotEmpty(t, cache.invalidated)
}

func TestCourseServiceCompletionCreatesNoEnrollments(t *testing.T) {
	svc, repo, _ := newTestCourseService(serviceSnapshot())

	resp, err := svc.UpdateStatus(context.Background(), "crs-1", dto.CourseStatusRequest{Status: models.CourseStatusCompleted}, claimsFor("admin"))
	require.NoError(t, err)
	assert.Empty(t, repo.statusEnrollments)
	assert.Zero(t, resp.EnrollmentsCreated)

	_, err = svc.UpdateStatus(context.Background(), "crs-1", dto.CourseStatusRequest{Status: "ARCHIVED"}, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))
}

func TestCourseServiceSections(t *testing.T) {
	svc, _, _ := newTestCourseService(serviceSnapshot())
	ctx := context.Background()

	sections, err := svc.Sections(ctx, "crs-1", claimsFor("t2"))
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "sec-a", sections[0].ID)

	sections, err = svc.Sections(ctx, "crs-1", claimsFor("co1"))
	require.NoError(t, err)
	assert.Len(t, sections, 2)
}
