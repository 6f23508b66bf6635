package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/service"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
	"github.com/forhay123/haybee-edu-sub012/pkg/response"
)

type weekGenerator interface {
	GenerateWeek(ctx context.Context, req dto.GenerateWeekRequest) (*dto.GenerateWeekResult, error)
	PreviewWeek(ctx context.Context, studentID, termID string, weekNumber int) (*dto.WeekPreview, error)
	GenerateBatch(ctx context.Context, req dto.BatchGenerateRequest) (*dto.BatchGenerateResult, error)
}

// GeneratorHandler exposes week generation endpoints.
type GeneratorHandler struct {
	service weekGenerator
	metrics *service.MetricsService
}

// NewGeneratorHandler constructs the handler.
func NewGeneratorHandler(svc *service.GeneratorService, metrics *service.MetricsService) *GeneratorHandler {
	return &GeneratorHandler{service: svc, metrics: metrics}
}

// Generate godoc
// @Summary Generate a student's week of schedule entries
// @Description Idempotent: a re-run against an already generated week is a no-op unless forceRegenerate is set. Forced runs preserve entries with a completed submission.
// @Tags Generator
// @Accept json
// @Produce json
// @Param payload body dto.GenerateWeekRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *GeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.service.GenerateWeek(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveGeneration(result.Created)
	response.JSON(c, http.StatusOK, result, nil)
}

// Preview godoc
// @Summary Preview a week's generation without persisting
// @Tags Generator
// @Produce json
// @Param studentId query string true "Student ID"
// @Param termId query string true "Term ID"
// @Param weekNumber query int true "Week number"
// @Success 200 {object} response.Envelope
// @Router /schedules/preview [get]
func (h *GeneratorHandler) Preview(c *gin.Context) {
	weekNumber, err := strconv.Atoi(c.Query("weekNumber"))
	if err != nil || weekNumber < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weekNumber must be a positive integer"))
		return
	}
	preview, err := h.service.PreviewWeek(c.Request.Context(), c.Query("studentId"), c.Query("termId"), weekNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Regenerate godoc
// @Summary Rebuild a student's week from its timetable
// @Description Equivalent to generate with forceRegenerate set. Entries with a completed submission are preserved.
// @Tags Generator
// @Accept json
// @Produce json
// @Param payload body dto.GenerateWeekRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/regenerate [post]
func (h *GeneratorHandler) Regenerate(c *gin.Context) {
	var req dto.GenerateWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	req.ForceRegenerate = true
	result, err := h.service.GenerateWeek(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveGeneration(result.Created)
	response.JSON(c, http.StatusOK, result, nil)
}

// Batch godoc
// @Summary Generate a week for many students
// @Description Runs per student across a bounded worker pool. Individual failures are reported in the result, never abort the batch.
// @Tags Generator
// @Accept json
// @Produce json
// @Param payload body dto.BatchGenerateRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/generate/batch [post]
func (h *GeneratorHandler) Batch(c *gin.Context) {
	var req dto.BatchGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	result, err := h.service.GenerateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	for _, r := range result.Results {
		h.metrics.ObserveGeneration(r.Created)
	}
	meta := map[string]interface{}{
		"succeeded": len(result.Results),
		"failed":    len(result.Errors),
	}
	response.JSON(c, http.StatusOK, result, nil, meta)
}
