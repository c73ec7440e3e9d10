package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/attainment"
	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type fakeAttainmentSrv struct {
	report    *attainment.CourseReport
	program   *dto.ProgramAttainmentResponse
	hit       bool
	err       error
	lastQuery dto.AttainmentQuery
	lastActor *models.JWTClaims
}

func (f *fakeAttainmentSrv) CourseAttainment(_ context.Context, _ string, query dto.AttainmentQuery, actor *models.JWTClaims) (*attainment.CourseReport, bool, error) {
	f.lastQuery = query
	f.lastActor = actor
	return f.report, f.hit, f.err
}

func (f *fakeAttainmentSrv) StudentAttainment(_ context.Context, courseID, studentID string, _ *models.JWTClaims) (*dto.StudentAttainmentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.StudentAttainmentResponse{CourseID: courseID, StudentID: studentID}, nil
}

func (f *fakeAttainmentSrv) Linkage(_ context.Context, courseID string, _ *models.JWTClaims) (*attainment.LinkageMatrix, error) {
	return &attainment.LinkageMatrix{CourseID: courseID}, f.err
}

func (f *fakeAttainmentSrv) ProgramAttainment(_ context.Context, _ string, query dto.AttainmentQuery, _ *models.JWTClaims) (*dto.ProgramAttainmentResponse, bool, error) {
	f.lastQuery = query
	return f.program, f.hit, f.err
}

func TestAttainmentHandlerCourse(t *testing.T) {
	srv := &fakeAttainmentSrv{
		report: &attainment.CourseReport{CourseID: "crs-1", ScopeSize: 5, Warnings: []string{"attainment levels are not ascending"}},
		hit:    true,
	}
	handler := NewAttainmentHandler(srv)
	claims := &models.JWTClaims{UserID: "co1", Role: models.RoleCoordinator}

	c, rec := newTestContext(httptest.NewRequest(http.MethodGet, "/courses/crs-1/attainment?sectionId=sec-a", nil), claims, gin.Param{Key: "id", Value: "crs-1"})
	handler.Course(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sec-a", srv.lastQuery.SectionID)
	assert.Same(t, claims, srv.lastActor)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, []interface{}{"attainment levels are not ascending"}, envelope.Meta["warnings"])
	var report attainment.CourseReport
	require.NoError(t, json.Unmarshal(envelope.Data, &report))
	assert.Equal(t, 5, report.ScopeSize)
}

func TestAttainmentHandlerCourseForbidden(t *testing.T) {
	handler := NewAttainmentHandler(&fakeAttainmentSrv{err: appErrors.Clone(appErrors.ErrForbidden, "section not taught by you")})

	c, rec := newTestContext(httptest.NewRequest(http.MethodGet, "/courses/crs-1/attainment", nil), &models.JWTClaims{UserID: "t2"}, gin.Param{Key: "id", Value: "crs-1"})
	handler.Course(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAttainmentHandlerProgramWeights(t *testing.T) {
	srv := &fakeAttainmentSrv{program: &dto.ProgramAttainmentResponse{ProgramID: "prog-1"}}
	handler := NewAttainmentHandler(srv)

	c, rec := newTestContext(httptest.NewRequest(http.MethodGet, "/programs/prog-1/po-attainment?directWeight=0.8&indirectWeight=0.2", nil), &models.JWTClaims{UserID: "uni"}, gin.Param{Key: "id", Value: "prog-1"})
	handler.Program(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.lastQuery.DirectWeight)
	assert.InDelta(t, 0.8, *srv.lastQuery.DirectWeight, 1e-9)
	assert.InDelta(t, 0.2, *srv.lastQuery.IndirectWeight, 1e-9)
	assert.Nil(t, srv.lastQuery.IndirectScore)

	c, rec = newTestContext(httptest.NewRequest(http.MethodGet, "/programs/prog-1/po-attainment?directWeight=high", nil), &models.JWTClaims{UserID: "uni"}, gin.Param{Key: "id", Value: "prog-1"})
	handler.Program(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttainmentHandlerStudentAndLinkage(t *testing.T) {
	handler := NewAttainmentHandler(&fakeAttainmentSrv{})

	c, rec := newTestContext(httptest.NewRequest(http.MethodGet, "/courses/crs-1/students/s1/attainment", nil), &models.JWTClaims{UserID: "t2"},
		gin.Param{Key: "id", Value: "crs-1"}, gin.Param{Key: "studentId", Value: "s1"})
	handler.Student(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"student_id":"s1"`)

	c, rec = newTestContext(httptest.NewRequest(http.MethodGet, "/courses/crs-1/linkage", nil), &models.JWTClaims{UserID: "t2"}, gin.Param{Key: "id", Value: "crs-1"})
	handler.Linkage(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"course_id":"crs-1"`)
}
