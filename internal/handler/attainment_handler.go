package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/attainment"
	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type attainmentService interface {
	CourseAttainment(ctx context.Context, courseID string, query dto.AttainmentQuery, actor *models.JWTClaims) (*attainment.CourseReport, bool, error)
	StudentAttainment(ctx context.Context, courseID, studentID string, actor *models.JWTClaims) (*dto.StudentAttainmentResponse, error)
	Linkage(ctx context.Context, courseID string, actor *models.JWTClaims) (*attainment.LinkageMatrix, error)
	ProgramAttainment(ctx context.Context, programID string, query dto.AttainmentQuery, actor *models.JWTClaims) (*dto.ProgramAttainmentResponse, bool, error)
}

// AttainmentHandler serves CO and PO attainment.
type AttainmentHandler struct {
	service attainmentService
}

// NewAttainmentHandler constructs an AttainmentHandler.
func NewAttainmentHandler(svc attainmentService) *AttainmentHandler {
	return &AttainmentHandler{service: svc}
}

// Course godoc
// @Summary Course outcome attainment
// @Description Teachers are limited to the sections they teach; other roles may pick one with sectionId
// @Tags Attainment
// @Produce json
// @Param id path string true "Course ID"
// @Param sectionId query string false "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/attainment [get]
func (h *AttainmentHandler) Course(c *gin.Context) {
	var query dto.AttainmentQuery
	if !bindQuery(c, &query) {
		return
	}
	report, hit, err := h.service.CourseAttainment(c.Request.Context(), c.Param("id"), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, report, hit, report.Warnings)
}

// Student godoc
// @Summary One student's CO attainment
// @Tags Attainment
// @Produce json
// @Param id path string true "Course ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/students/{studentId}/attainment [get]
func (h *AttainmentHandler) Student(c *gin.Context) {
	res, err := h.service.StudentAttainment(c.Request.Context(), c.Param("id"), c.Param("studentId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Linkage godoc
// @Summary CO-PO linkage matrix
// @Tags Attainment
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/linkage [get]
func (h *AttainmentHandler) Linkage(c *gin.Context) {
	matrix, err := h.service.Linkage(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matrix)
}

// Program godoc
// @Summary Program outcome attainment
// @Description Weights default to the configured values when omitted
// @Tags Attainment
// @Produce json
// @Param id path string true "Program ID"
// @Param directWeight query number false "Direct weight"
// @Param indirectWeight query number false "Indirect weight"
// @Param indirectScore query number false "Indirect survey score (0-3)"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/po-attainment [get]
func (h *AttainmentHandler) Program(c *gin.Context) {
	var query dto.AttainmentQuery
	if !bindQuery(c, &query) {
		return
	}
	res, hit, err := h.service.ProgramAttainment(c.Request.Context(), c.Param("id"), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, res, hit, res.Warnings)
}

func bindQuery(c *gin.Context, query *dto.AttainmentQuery) bool {
	if err := c.ShouldBindQuery(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return false
	}
	return true
}
