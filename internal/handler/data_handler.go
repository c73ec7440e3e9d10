package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type snapshotService interface {
	Visible(ctx context.Context, actor *models.JWTClaims) (*models.Snapshot, error)
}

// DataHandler serves the caller's slice of the full data snapshot.
type DataHandler struct {
	snapshots snapshotService
}

// NewDataHandler constructs a DataHandler.
func NewDataHandler(snapshots snapshotService) *DataHandler {
	return &DataHandler{snapshots: snapshots}
}

// All godoc
// @Summary Load all visible data
// @Description Returns every entity the caller may see in one payload
// @Tags Data
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /data [get]
func (h *DataHandler) All(c *gin.Context) {
	snap, err := h.snapshots.Visible(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap)
}
