package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type hierarchyService interface {
	ListColleges(ctx context.Context) ([]models.College, error)
	CreateCollege(ctx context.Context, req dto.CollegeRequest) (*models.College, error)
	ListPrograms(ctx context.Context, collegeID string) ([]models.Program, error)
	CreateProgram(ctx context.Context, collegeID string, req dto.ProgramRequest) (*models.Program, error)
	ListBatches(ctx context.Context, programID string) ([]dto.BatchView, error)
	CreateBatch(ctx context.Context, programID string, req dto.BatchRequest) (*dto.BatchView, error)
	ListSections(ctx context.Context, programID, batchID string) ([]models.Section, error)
	CreateSection(ctx context.Context, programID string, req dto.SectionRequest) (*models.Section, error)
}

// HierarchyHandler exposes colleges, programs, batches and sections.
type HierarchyHandler struct {
	service hierarchyService
}

// NewHierarchyHandler constructs a HierarchyHandler.
func NewHierarchyHandler(svc hierarchyService) *HierarchyHandler {
	return &HierarchyHandler{service: svc}
}

// ListColleges godoc
// @Summary List colleges
// @Tags Hierarchy
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /colleges [get]
func (h *HierarchyHandler) ListColleges(c *gin.Context) {
	colleges, err := h.service.ListColleges(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, colleges)
}

// CreateCollege godoc
// @Summary Create college
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Param payload body dto.CollegeRequest true "College payload"
// @Success 201 {object} response.Envelope
// @Router /colleges [post]
func (h *HierarchyHandler) CreateCollege(c *gin.Context) {
	var req dto.CollegeRequest
	if !bindJSON(c, &req, "invalid college payload") {
		return
	}
	college, err := h.service.CreateCollege(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, college)
}

// ListPrograms godoc
// @Summary List programs of a college
// @Tags Hierarchy
// @Produce json
// @Param id path string true "College ID"
// @Success 200 {object} response.Envelope
// @Router /colleges/{id}/programs [get]
func (h *HierarchyHandler) ListPrograms(c *gin.Context) {
	programs, err := h.service.ListPrograms(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs)
}

// CreateProgram godoc
// @Summary Create program
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Param id path string true "College ID"
// @Param payload body dto.ProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Router /colleges/{id}/programs [post]
func (h *HierarchyHandler) CreateProgram(c *gin.Context) {
	var req dto.ProgramRequest
	if !bindJSON(c, &req, "invalid program payload") {
		return
	}
	program, err := h.service.CreateProgram(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// ListBatches godoc
// @Summary List batches of a program
// @Tags Hierarchy
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/batches [get]
func (h *HierarchyHandler) ListBatches(c *gin.Context) {
	batches, err := h.service.ListBatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches)
}

// CreateBatch godoc
// @Summary Create batch
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body dto.BatchRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Router /programs/{id}/batches [post]
func (h *HierarchyHandler) CreateBatch(c *gin.Context) {
	var req dto.BatchRequest
	if !bindJSON(c, &req, "invalid batch payload") {
		return
	}
	batch, err := h.service.CreateBatch(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// ListSections godoc
// @Summary List sections of a program
// @Tags Hierarchy
// @Produce json
// @Param id path string true "Program ID"
// @Param batchId query string false "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/sections [get]
func (h *HierarchyHandler) ListSections(c *gin.Context) {
	sections, err := h.service.ListSections(c.Request.Context(), c.Param("id"), strings.TrimSpace(c.Query("batchId")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections)
}

// CreateSection godoc
// @Summary Create section
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body dto.SectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /programs/{id}/sections [post]
func (h *HierarchyHandler) CreateSection(c *gin.Context) {
	var req dto.SectionRequest
	if !bindJSON(c, &req, "invalid section payload") {
		return
	}
	section, err := h.service.CreateSection(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}
