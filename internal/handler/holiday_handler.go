package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	"github.com/forhay123/haybee-edu-sub012/internal/service"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
	"github.com/forhay123/haybee-edu-sub012/pkg/response"
)

type holidayCalendar interface {
	ListHolidays(ctx context.Context, filter models.HolidayFilter) ([]models.PublicHoliday, *models.Pagination, error)
	CreateHoliday(ctx context.Context, req dto.CreateHolidayRequest) (*models.PublicHoliday, error)
	UpdateHoliday(ctx context.Context, id string, req dto.UpdateHolidayRequest) (*models.PublicHoliday, error)
	DeleteHoliday(ctx context.Context, id string) error
	CheckDate(ctx context.Context, date time.Time) (*dto.HolidayCheckResponse, error)
	RescheduleImpact(ctx context.Context, termID string, weekNumber int) (*dto.RescheduleImpactResponse, error)
}

// HolidayHandler exposes the holiday calendar endpoints.
type HolidayHandler struct {
	service holidayCalendar
}

// NewHolidayHandler constructs the handler.
func NewHolidayHandler(svc *service.CalendarService) *HolidayHandler {
	return &HolidayHandler{service: svc}
}

// List godoc
// @Summary List public holidays
// @Tags Holidays
// @Produce json
// @Param dateFrom query string false "Range start YYYY-MM-DD"
// @Param dateTo query string false "Range end YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *HolidayHandler) List(c *gin.Context) {
	filter := models.HolidayFilter{}
	if raw := c.Query("dateFrom"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateFrom must be YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("dateTo"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateTo must be YYYY-MM-DD"))
			return
		}
		filter.DateTo = &to
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	holidays, pagination, err := h.service.ListHolidays(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays, pagination)
}

// Create godoc
// @Summary Register a public holiday
// @Tags Holidays
// @Accept json
// @Produce json
// @Param payload body dto.CreateHolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Router /holidays [post]
func (h *HolidayHandler) Create(c *gin.Context) {
	var req dto.CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid holiday payload"))
		return
	}
	holiday, err := h.service.CreateHoliday(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holiday)
}

// Update godoc
// @Summary Modify a public holiday
// @Tags Holidays
// @Accept json
// @Produce json
// @Param id path string true "Holiday ID"
// @Param payload body dto.UpdateHolidayRequest true "Holiday payload"
// @Success 200 {object} response.Envelope
// @Router /holidays/{id} [put]
func (h *HolidayHandler) Update(c *gin.Context) {
	var req dto.UpdateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid holiday payload"))
		return
	}
	holiday, err := h.service.UpdateHoliday(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holiday, nil)
}

// Delete godoc
// @Summary Remove a public holiday
// @Tags Holidays
// @Param id path string true "Holiday ID"
// @Success 204
// @Router /holidays/{id} [delete]
func (h *HolidayHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteHoliday(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Check godoc
// @Summary Check whether a date is a school day
// @Tags Holidays
// @Produce json
// @Param date query string true "Date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /holidays/check [get]
func (h *HolidayHandler) Check(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	result, err := h.service.CheckDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Impact godoc
// @Summary Report holiday reschedule impact for a term week
// @Tags Holidays
// @Produce json
// @Param termId query string true "Term ID"
// @Param weekNumber query int true "Week number"
// @Success 200 {object} response.Envelope
// @Router /holidays/impact [get]
func (h *HolidayHandler) Impact(c *gin.Context) {
	weekNumber, err := strconv.Atoi(c.Query("weekNumber"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weekNumber must be an integer"))
		return
	}
	result, err := h.service.RescheduleImpact(c.Request.Context(), c.Query("termId"), weekNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
