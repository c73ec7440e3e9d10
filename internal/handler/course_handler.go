package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter, actor *models.JWTClaims) ([]models.Course, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.CourseDetail, error)
	Create(ctx context.Context, req dto.CourseRequest, actor *models.JWTClaims) (*dto.CourseDetail, error)
	Update(ctx context.Context, id string, req dto.CourseRequest, actor *models.JWTClaims) (*dto.CourseDetail, error)
	UpdateTeachers(ctx context.Context, id string, req dto.TeacherAssignmentRequest, actor *models.JWTClaims) (*models.Course, error)
	UpdateStatus(ctx context.Context, id string, req dto.CourseStatusRequest, actor *models.JWTClaims) (*dto.CourseStatusResponse, error)
	Sections(ctx context.Context, id string, actor *models.JWTClaims) ([]models.Section, error)
	Enrollments(ctx context.Context, id string, actor *models.JWTClaims) ([]models.Enrollment, error)
}

// CourseHandler exposes course management endpoints.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs a CourseHandler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List visible courses
// @Tags Courses
// @Produce json
// @Param programId query string false "Program ID"
// @Param batchId query string false "Batch ID"
// @Param status query string false "FUTURE, ACTIVE or COMPLETED"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		ProgramID: strings.TrimSpace(c.Query("programId")),
		BatchID:   strings.TrimSpace(c.Query("batchId")),
		Status:    models.CourseStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be FUTURE, ACTIVE or COMPLETED"))
		return
	}
	courses, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, course, false, course.Warnings)
}

// Create godoc
// @Summary Create course
// @Description New courses start in FUTURE status
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.CourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req dto.CourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, course, false, course.Warnings)
}

// UpdateTeachers godoc
// @Summary Assign course teachers
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.TeacherAssignmentRequest true "Teacher assignment"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/teachers [put]
func (h *CourseHandler) UpdateTeachers(c *gin.Context) {
	var req dto.TeacherAssignmentRequest
	if !bindJSON(c, &req, "invalid teacher assignment") {
		return
	}
	course, err := h.service.UpdateTeachers(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// UpdateStatus godoc
// @Summary Change course status
// @Description Moving a course to ACTIVE enrolls every active student of its program batch
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.CourseStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/status [patch]
func (h *CourseHandler) UpdateStatus(c *gin.Context) {
	var req dto.CourseStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	res, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Sections godoc
// @Summary Sections of a course
// @Description Teachers only see the sections they teach
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/sections [get]
func (h *CourseHandler) Sections(c *gin.Context) {
	sections, err := h.service.Sections(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections)
}

// Enrollments godoc
// @Summary Enrollments of a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollments [get]
func (h *CourseHandler) Enrollments(c *gin.Context) {
	enrollments, err := h.service.Enrollments(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments)
}
