package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type assessmentService interface {
	List(ctx context.Context, courseID string, actor *models.JWTClaims) ([]models.Assessment, error)
	Create(ctx context.Context, courseID string, req dto.AssessmentRequest, actor *models.JWTClaims) (*models.Assessment, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	Marks(ctx context.Context, id string, actor *models.JWTClaims) ([]models.Mark, error)
	SaveMarks(ctx context.Context, id string, req dto.SaveMarksRequest, actor *models.JWTClaims) ([]models.Mark, error)
}

// AssessmentHandler exposes assessments and their marks.
type AssessmentHandler struct {
	service assessmentService
}

// NewAssessmentHandler constructs an AssessmentHandler.
func NewAssessmentHandler(svc assessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: svc}
}

// List godoc
// @Summary Assessments of a course
// @Tags Assessments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/assessments [get]
func (h *AssessmentHandler) List(c *gin.Context) {
	assessments, err := h.service.List(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessments)
}

// Create godoc
// @Summary Create assessment
// @Description Each question lists the COs it measures
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.AssessmentRequest true "Assessment"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req dto.AssessmentRequest
	if !bindJSON(c, &req, "invalid assessment payload") {
		return
	}
	assessment, err := h.service.Create(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessment)
}

// Delete godoc
// @Summary Delete assessment
// @Tags Assessments
// @Param id path string true "Assessment ID"
// @Success 204
// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Marks godoc
// @Summary Marks of an assessment
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id}/marks [get]
func (h *AssessmentHandler) Marks(c *gin.Context) {
	marks, err := h.service.Marks(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks)
}

// SaveMarks godoc
// @Summary Save marks
// @Description Scores are replaced per student; null means absent
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Param payload body dto.SaveMarksRequest true "Marks"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id}/marks [put]
func (h *AssessmentHandler) SaveMarks(c *gin.Context) {
	var req dto.SaveMarksRequest
	if !bindJSON(c, &req, "invalid marks payload") {
		return
	}
	marks, err := h.service.SaveMarks(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks)
}
