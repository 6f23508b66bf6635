package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	"github.com/forhay123/haybee-edu-sub012/internal/service"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
	"github.com/forhay123/haybee-edu-sub012/pkg/export"
	"github.com/forhay123/haybee-edu-sub012/pkg/response"
)

type scheduleReader interface {
	List(ctx context.Context, query dto.ScheduleQuery) ([]dto.ScheduleEntryView, *models.Pagination, error)
}

// ScheduleHandler exposes the schedule read path.
type ScheduleHandler struct {
	service scheduleReader
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary Query a student's schedule entries
// @Description Filters by term week or date range. Status and dependency state are recomputed from stored fields at request time.
// @Tags Schedules
// @Produce json
// @Param studentId query string false "Student ID"
// @Param termId query string false "Term ID (with weekNumber)"
// @Param weekNumber query int false "Week number (with termId)"
// @Param dateFrom query string false "Range start YYYY-MM-DD"
// @Param dateTo query string false "Range end YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule query"))
		return
	}
	views, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, pagination)
}

// ListDay godoc
// @Summary Query a student's schedule entries for one date
// @Tags Schedules
// @Produce json
// @Param studentId query string false "Student ID"
// @Param date query string true "Date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /schedules/day [get]
func (h *ScheduleHandler) ListDay(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	query := dto.ScheduleQuery{
		StudentID: c.Query("studentId"),
		DateFrom:  date,
		DateTo:    date,
	}
	views, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, pagination)
}

// Export godoc
// @Summary Export a student's schedule as CSV or PDF
// @Tags Schedules
// @Produce octet-stream
// @Param studentId query string true "Student ID"
// @Param termId query string false "Term ID (with weekNumber)"
// @Param weekNumber query int false "Week number (with termId)"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Router /schedules/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule query"))
		return
	}
	if query.StudentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required for export"))
		return
	}
	query.PageSize = 100

	views, _, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := export.ScheduleCSV(views)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="schedule.csv"`)
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := export.SchedulePDF(query.StudentID, views)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="schedule.pdf"`)
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
