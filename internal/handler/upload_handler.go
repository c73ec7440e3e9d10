package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type uploadService interface {
	CourseOutcomes(ctx context.Context, courseID, filename string, r io.Reader, actor *models.JWTClaims) (*dto.UploadResult, error)
	Students(ctx context.Context, programID, filename string, r io.Reader, actor *models.JWTClaims) (*dto.UploadResult, error)
	Marks(ctx context.Context, assessmentID, filename string, r io.Reader, actor *models.JWTClaims) (*dto.UploadResult, error)
}

// UploadHandler accepts .csv and .xlsx spreadsheets for bulk entry.
type UploadHandler struct {
	service uploadService
	maxSize int64
}

// NewUploadHandler constructs an UploadHandler. maxSize bounds the file part in bytes.
func NewUploadHandler(svc uploadService, maxSize int64) *UploadHandler {
	if maxSize <= 0 {
		maxSize = 5 * 1024 * 1024
	}
	return &UploadHandler{service: svc, maxSize: maxSize}
}

// CourseOutcomes godoc
// @Summary Upload course outcomes
// @Description Columns: code, description
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Course ID"
// @Param file formData file true "Spreadsheet (.csv or .xlsx)"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /courses/{id}/outcomes/upload [post]
func (h *UploadHandler) CourseOutcomes(c *gin.Context) {
	h.handle(c, func(ctx context.Context, filename string, r io.Reader) (*dto.UploadResult, error) {
		return h.service.CourseOutcomes(ctx, c.Param("id"), filename, r, claimsFromContext(c))
	})
}

// Students godoc
// @Summary Upload students
// @Description Columns: id, name, optional section and status
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Program ID"
// @Param file formData file true "Spreadsheet (.csv or .xlsx)"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /programs/{id}/students/upload [post]
func (h *UploadHandler) Students(c *gin.Context) {
	h.handle(c, func(ctx context.Context, filename string, r io.Reader) (*dto.UploadResult, error) {
		return h.service.Students(ctx, c.Param("id"), filename, r, claimsFromContext(c))
	})
}

// Marks godoc
// @Summary Upload marks
// @Description Columns: Student ID plus one column per question; blank, AB or - means absent
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Assessment ID"
// @Param file formData file true "Spreadsheet (.csv or .xlsx)"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /assessments/{id}/marks/upload [post]
func (h *UploadHandler) Marks(c *gin.Context) {
	h.handle(c, func(ctx context.Context, filename string, r io.Reader) (*dto.UploadResult, error) {
		return h.service.Marks(ctx, c.Param("id"), filename, r, claimsFromContext(c))
	})
}

type uploadFunc func(ctx context.Context, filename string, r io.Reader) (*dto.UploadResult, error)

func (h *UploadHandler) handle(c *gin.Context, run uploadFunc) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize+1024*1024)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, h.tooLarge())
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if fileHeader.Size > h.maxSize {
		response.Error(c, h.tooLarge())
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	result, err := run(c.Request.Context(), fileHeader.Filename, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func (h *UploadHandler) tooLarge() error {
	return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxSize))
}
