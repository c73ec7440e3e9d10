package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type exportService interface {
	Export(ctx context.Context, req dto.AttainmentReportRequest, actor *models.JWTClaims) (*dto.AttainmentReportResponse, error)
	Open(token string) (*os.File, string, error)
}

// ReportHandler exposes attainment report exports.
type ReportHandler struct {
	service exportService
}

// NewReportHandler constructs handler.
func NewReportHandler(svc exportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Export godoc
// @Summary Export course attainment
// @Description Renders the caller's view of a course to CSV or PDF and returns a signed link
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.AttainmentReportRequest true "Report request"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/attainment [post]
func (h *ReportHandler) Export(c *gin.Context) {
	var req dto.AttainmentReportRequest
	if !bindJSON(c, &req, "invalid report request") {
		return
	}
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	res, err := h.service.Export(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Download godoc
// @Summary Download an exported report
// @Tags Reports
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, filename, err := h.service.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read report"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType(filename), file, nil)
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
