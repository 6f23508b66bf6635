package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/service"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
	"github.com/forhay123/haybee-edu-sub012/pkg/response"
)

type repairRunner interface {
	Run(ctx context.Context, req dto.RepairRequest) (*dto.RepairReport, error)
}

// RepairHandler exposes the reconciliation utility.
type RepairHandler struct {
	service repairRunner
}

// NewRepairHandler constructs the handler.
func NewRepairHandler(svc *service.RepairService) *RepairHandler {
	return &RepairHandler{service: svc}
}

// Run godoc
// @Summary Scan and repair inconsistent schedule data
// @Description Counts orphaned progress, corrupted completions, duplicate slots and unarchived elapsed weeks. Fixes apply in one transaction unless dryRun is set.
// @Tags Repair
// @Accept json
// @Produce json
// @Param payload body dto.RepairRequest false "Repair options"
// @Success 200 {object} response.Envelope
// @Router /repair [post]
func (h *RepairHandler) Run(c *gin.Context) {
	var req dto.RepairRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid repair payload"))
			return
		}
	}
	report, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
