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

type studentService interface {
	List(ctx context.Context, programID, sectionID string, actor *models.JWTClaims) ([]models.Student, error)
	Save(ctx context.Context, programID string, reqs []dto.StudentRequest, actor *models.JWTClaims) ([]models.Student, error)
}

// StudentHandler registers the students of a program.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(svc studentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// List godoc
// @Summary List students of a program
// @Tags Students
// @Produce json
// @Param id path string true "Program ID"
// @Param sectionId query string false "Section ID"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.service.List(c.Request.Context(), c.Param("id"), strings.TrimSpace(c.Query("sectionId")), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// Save godoc
// @Summary Register or update students
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body []dto.StudentRequest true "Students"
// @Success 200 {object} response.Envelope
// @Router /programs/{id}/students [post]
func (h *StudentHandler) Save(c *gin.Context) {
	var reqs []dto.StudentRequest
	if !bindJSON(c, &reqs, "invalid students payload") {
		return
	}
	students, err := h.service.Save(c.Request.Context(), c.Param("id"), reqs, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}
