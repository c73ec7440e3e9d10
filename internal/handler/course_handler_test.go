package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
)

type fakeCourseSrv struct {
	lastFilter  models.CourseFilter
	lastRequest dto.CourseRequest
	lastStatus  dto.CourseStatusRequest
}

func (f *fakeCourseSrv) List(_ context.Context, filter models.CourseFilter, _ *models.JWTClaims) ([]models.Course, error) {
	f.lastFilter = filter
	return []models.Course{{ID: "crs-1"}}, nil
}

func (f *fakeCourseSrv) Get(_ context.Context, id string, _ *models.JWTClaims) (*dto.CourseDetail, error) {
	return &dto.CourseDetail{Course: models.Course{ID: id}, Warnings: []string{"weightage sums to 90, not 100"}}, nil
}

func (f *fakeCourseSrv) Create(_ context.Context, req dto.CourseRequest, _ *models.JWTClaims) (*dto.CourseDetail, error) {
	f.lastRequest = req
	return &dto.CourseDetail{Course: models.Course{ID: "crs-new", Code: req.Code, Status: models.CourseStatusFuture}}, nil
}

func (f *fakeCourseSrv) Update(_ context.Context, id string, req dto.CourseRequest, _ *models.JWTClaims) (*dto.CourseDetail, error) {
	f.lastRequest = req
	return &dto.CourseDetail{Course: models.Course{ID: id}}, nil
}

func (f *fakeCourseSrv) UpdateTeachers(_ context.Context, id string, _ dto.TeacherAssignmentRequest, _ *models.JWTClaims) (*models.Course, error) {
	return &models.Course{ID: id}, nil
}

func (f *fakeCourseSrv) UpdateStatus(_ context.Context, id string, req dto.CourseStatusRequest, _ *models.JWTClaims) (*dto.CourseStatusResponse, error) {
	f.lastStatus = req
	return &dto.CourseStatusResponse{Course: models.Course{ID: id, Status: req.Status}, EnrollmentsCreated: 42}, nil
}

func (f *fakeCourseSrv) Sections(context.Context, string, *models.JWTClaims) ([]models.Section, error) {
	return []models.Section{{ID: "sec-a"}}, nil
}

func (f *fakeCourseSrv) Enrollments(context.Context, string, *models.JWTClaims) ([]models.Enrollment, error) {
	return nil, nil
}

func TestCourseHandlerListFilters(t *testing.T) {
	srv := &fakeCourseSrv{}
	handler := NewCourseHandler(srv)

	c, rec := newTestContext(httptest.NewRequest(http.MethodGet, "/courses?programId=prog-1&status=active", nil), &models.JWTClaims{UserID: "admin"})
	handler.List(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "prog-1", srv.lastFilter.ProgramID)
	assert.Equal(t, models.CourseStatusActive, srv.lastFilter.Status)

	c, rec = newTestContext(httptest.NewRequest(http.MethodGet, "/courses?status=archived", nil), &models.JWTClaims{UserID: "admin"})
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourseHandlerCreate(t *testing.T) {
	srv := &fakeCourseSrv{}
	handler := NewCourseHandler(srv)
	body := `{"program_id":"prog-1","batch_id":"batch-1","code":"CS101","name":"Programming","semester":1,"target":60,
		"internal_weightage":40,"external_weightage":60,"attainment_levels":{"level1":30,"level2":50,"level3":60},
		"teachers":{"kind":"SINGLE","teacher_id":"t1"}}`

	c, rec := newTestContext(jsonRequest(http.MethodPost, "/courses", body), &models.JWTClaims{UserID: "co1"})
	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "CS101", srv.lastRequest.Code)
	require.NotNil(t, srv.lastRequest.Teachers)
	assert.Equal(t, "t1", srv.lastRequest.Teachers.TeacherID)

	c, rec = newTestContext(jsonRequest(http.MethodPost, "/courses", `{"code":`), &models.JWTClaims{UserID: "co1"})
	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourseHandlerGetCarriesWarnings(t *testing.T) {
	handler := NewCourseHandler(&fakeCourseSrv{})

	c, rec := newTestContext(httptest.NewRequest(http.MethodGet, "/courses/crs-1", nil), &models.JWTClaims{UserID: "admin"}, gin.Param{Key: "id", Value: "crs-1"})
	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, []interface{}{"weightage sums to 90, not 100"}, envelope.Meta["warnings"])
}

func TestCourseHandlerActivate(t *testing.T) {
	srv := &fakeCourseSrv{}
	handler := NewCourseHandler(srv)

	c, rec := newTestContext(jsonRequest(http.MethodPatch, "/courses/crs-1/status", `{"status":"ACTIVE"}`), &models.JWTClaims{UserID: "co1"}, gin.Param{Key: "id", Value: "crs-1"})
	handler.UpdateStatus(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CourseStatusActive, srv.lastStatus.Status)
	assert.Contains(t, rec.Body.String(), `"enrollments_created":42`)
}
