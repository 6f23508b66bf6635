package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	"github.com/forhay123/haybee-edu-sub012/internal/service"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
	"github.com/forhay123/haybee-edu-sub012/pkg/response"
)

type topicAssigner interface {
	ListPending(ctx context.Context, query dto.PendingTopicsQuery) ([]models.ScheduleEntry, *models.Pagination, error)
	Suggestions(ctx context.Context, entryID, query string) (*dto.SuggestionsResponse, error)
	Assign(ctx context.Context, req dto.AssignTopicRequest) (*models.ScheduleEntry, error)
	BulkAssign(ctx context.Context, req dto.BulkAssignTopicRequest) (*dto.BulkAssignResponse, error)
	QuickAssign(ctx context.Context, req dto.QuickAssignRequest) (*models.ScheduleEntry, error)
}

// TopicHandler exposes topic assignment endpoints.
type TopicHandler struct {
	service topicAssigner
}

// NewTopicHandler constructs the handler.
func NewTopicHandler(svc *service.TopicService) *TopicHandler {
	return &TopicHandler{service: svc}
}

// ListPending godoc
// @Summary List schedule entries awaiting topic assignment
// @Tags Topics
// @Produce json
// @Param studentId query string false "Student ID"
// @Param subjectId query string false "Subject ID"
// @Param weekNumber query int false "Week number"
// @Success 200 {object} response.Envelope
// @Router /topics/pending [get]
func (h *TopicHandler) ListPending(c *gin.Context) {
	var query dto.PendingTopicsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pending topics query"))
		return
	}
	entries, pagination, err := h.service.ListPending(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Suggestions godoc
// @Summary Score candidate topics for one entry
// @Description Advisory only; nothing is committed. Pass q to match against topic titles, omit it for curriculum-order ranking.
// @Tags Topics
// @Produce json
// @Param entryId path string true "Schedule entry ID"
// @Param q query string false "Title text to match"
// @Success 200 {object} response.Envelope
// @Router /topics/suggestions/{entryId} [get]
func (h *TopicHandler) Suggestions(c *gin.Context) {
	result, err := h.service.Suggestions(c.Request.Context(), c.Param("entryId"), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Assign godoc
// @Summary Assign a topic to one schedule entry
// @Tags Topics
// @Accept json
// @Produce json
// @Param payload body dto.AssignTopicRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /topics/assign [post]
func (h *TopicHandler) Assign(c *gin.Context) {
	var req dto.AssignTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	entry, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// BulkAssign godoc
// @Summary Assign one topic to many entries atomically
// @Description Applies in a single transaction; any invalid entry fails the whole batch.
// @Tags Topics
// @Accept json
// @Produce json
// @Param payload body dto.BulkAssignTopicRequest true "Bulk assignment payload"
// @Success 200 {object} response.Envelope
// @Router /topics/assign/bulk [post]
func (h *TopicHandler) BulkAssign(c *gin.Context) {
	var req dto.BulkAssignTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk assignment payload"))
		return
	}
	result, err := h.service.BulkAssign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// QuickAssign godoc
// @Summary Commit the top suggestion for one entry
// @Tags Topics
// @Accept json
// @Produce json
// @Param payload body dto.QuickAssignRequest true "Quick-assign payload"
// @Success 200 {object} response.Envelope
// @Router /topics/assign/quick [post]
func (h *TopicHandler) QuickAssign(c *gin.Context) {
	var req dto.QuickAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quick-assign payload"))
		return
	}
	entry, err := h.service.QuickAssign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
