package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type outcomeService interface {
	ListCourseOutcomes(ctx context.Context, courseID string, actor *models.JWTClaims) ([]models.CourseOutcome, error)
	SaveCourseOutcomes(ctx context.Context, courseID string, reqs []dto.OutcomeRequest, actor *models.JWTClaims) ([]models.CourseOutcome, error)
	UpdateCourseOutcome(ctx context.Context, id string, req dto.OutcomeRequest, actor *models.JWTClaims) (*models.CourseOutcome, error)
	DeleteCourseOutcome(ctx context.Context, id string, actor *models.JWTClaims) error
	ListProgramOutcomes(ctx context.Context, programID string) ([]models.ProgramOutcome, error)
	CreateProgramOutcome(ctx context.Context, programID string, req dto.OutcomeRequest, actor *models.JWTClaims) (*models.ProgramOutcome, error)
	Mappings(ctx context.Context, courseID string, actor *models.JWTClaims) ([]models.CoPoMapping, error)
	ReplaceMappings(ctx context.Context, courseID string, req dto.ReplaceMappingsRequest, actor *models.JWTClaims) ([]models.CoPoMapping, error)
}

// OutcomeHandler exposes course outcomes, program outcomes and their mappings.
type OutcomeHandler struct {
	service outcomeService
}

// NewOutcomeHandler constructs an OutcomeHandler.
func NewOutcomeHandler(svc outcomeService) *OutcomeHandler {
	return &OutcomeHandler{service: svc}
}

// ListCourseOutcomes godoc
// @Summary List course outcomes
// @Tags Outcomes
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/outcomes [get]
func (h *OutcomeHandler) ListCourseOutcomes(c *gin.Context) {
	outcomes, err := h.service.ListCourseOutcomes(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcomes)
}

// SaveCourseOutcomes godoc
// @Summary Add or update course outcomes
// @Description An existing number keeps its ID and takes the new description
// @Tags Outcomes
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body []dto.OutcomeRequest true "Course outcomes"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/outcomes [post]
func (h *OutcomeHandler) SaveCourseOutcomes(c *gin.Context) {
	var reqs []dto.OutcomeRequest
	if !bindJSON(c, &reqs, "invalid course outcomes payload") {
		return
	}
	outcomes, err := h.service.SaveCourseOutcomes(c.Request.Context(), c.Param("id"), reqs, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcomes)
}

// UpdateCourseOutcome godoc
// @Summary Update a course outcome
// @Tags Outcomes
// @Accept json
// @Produce json
// @Param id path string true "Course outcome ID"
// @Param payload body dto.OutcomeRequest true "Course outcome"
// @Success 200 {object} response.Envelope
// @Router /outcomes/{id} [put]
func (h *OutcomeHandler) UpdateCourseOutcome(c *gin.Context) {
	var req dto.OutcomeRequest
	if !bindJSON(c, &req, "invalid course outcome payload") {
		return
	}
	outcome, err := h.service.UpdateCourseOutcome(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome)
}

// DeleteCourseOutcome godoc
// @Summary Delete a course outcome
// @Tags Outcomes
// @Param id path string true "Course outcome ID"
// @Success 204
// @Router /outcomes/{id} [delete]
func (h *OutcomeHandler) DeleteCourseOutcome(c *gin.Context) {
	if err := h.service.DeleteCourseOutcome(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListProgramOutcomes godoc
// @Summary List program outcomes
// @Tags Outcomes
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/outcomes [get]
func (h *OutcomeHandler) ListProgramOutcomes(c *gin.Context) {
	outcomes, err := h.service.ListProgramOutcomes(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcomes)
}

// CreateProgramOutcome godoc
// @Summary Create a program outcome
// @Tags Outcomes
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body dto.OutcomeRequest true "Program outcome"
// @Success 201 {object} response.Envelope
// @Router /programs/{id}/outcomes [post]
func (h *OutcomeHandler) CreateProgramOutcome(c *gin.Context) {
	var req dto.OutcomeRequest
	if !bindJSON(c, &req, "invalid program outcome payload") {
		return
	}
	outcome, err := h.service.CreateProgramOutcome(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, outcome)
}

// Mappings godoc
// @Summary CO-PO mappings of a course
// @Tags Outcomes
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/mappings [get]
func (h *OutcomeHandler) Mappings(c *gin.Context) {
	mappings, err := h.service.Mappings(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mappings)
}

// ReplaceMappings godoc
// @Summary Replace the CO-PO mappings of a course
// @Description Level 0 cells are dropped
// @Tags Outcomes
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.ReplaceMappingsRequest true "Mapping matrix"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/mappings [put]
func (h *OutcomeHandler) ReplaceMappings(c *gin.Context) {
	var req dto.ReplaceMappingsRequest
	if !bindJSON(c, &req, "invalid mappings payload") {
		return
	}
	mappings, err := h.service.ReplaceMappings(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mappings)
}
