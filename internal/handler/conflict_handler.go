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

type conflictResolver interface {
	List(ctx context.Context, timetableID string) (*dto.ConflictListResponse, error)
	Resolve(ctx context.Context, timetableID string, req dto.ResolveConflictRequest) (*dto.ResolveConflictResponse, error)
	UpdateSubjectMapping(ctx context.Context, timetableID, entryID string, req dto.UpdateSubjectMappingRequest) (*models.TimetableEntry, error)
}

// ConflictHandler exposes conflict detection and resolution endpoints.
type ConflictHandler struct {
	service conflictResolver
}

// NewConflictHandler constructs the handler.
func NewConflictHandler(svc *service.ConflictService) *ConflictHandler {
	return &ConflictHandler{service: svc}
}

// List godoc
// @Summary List a timetable's current conflicts
// @Description Conflicts are recomputed from the timetable entries on every call.
// @Tags Conflicts
// @Produce json
// @Param timetableId path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{timetableId}/conflicts [get]
func (h *ConflictHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), c.Param("timetableId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Resolve godoc
// @Summary Apply one resolution action to a conflicting pair
// @Description Fails with STALE_ENTRY when the addressed entries no longer match current state, and with OVERLAP_REMAINS when an EDIT_TIME would not remove the overlap. The response reports the remaining conflict count.
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param timetableId path string true "Timetable ID"
// @Param payload body dto.ResolveConflictRequest true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/{timetableId}/conflicts/resolve [post]
func (h *ConflictHandler) Resolve(c *gin.Context) {
	var req dto.ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}
	result, err := h.service.Resolve(c.Request.Context(), c.Param("timetableId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpdateMapping godoc
// @Summary Bind a timetable entry to a subject
// @Description Fails with STALE_ENTRY when the addressed entry no longer exists on the timetable.
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param timetableId path string true "Timetable ID"
// @Param entryId path string true "Timetable entry ID"
// @Param payload body dto.UpdateSubjectMappingRequest true "Mapping payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/{timetableId}/entries/{entryId}/subject [put]
func (h *ConflictHandler) UpdateMapping(c *gin.Context) {
	var req dto.UpdateSubjectMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mapping payload"))
		return
	}
	entry, err := h.service.UpdateSubjectMapping(c.Request.Context(), c.Param("timetableId"), c.Param("entryId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
