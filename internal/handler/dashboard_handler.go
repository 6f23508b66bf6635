package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/service"
	"github.com/forhay123/haybee-edu-sub012/pkg/response"
)

type statsProvider interface {
	Stats(ctx context.Context) (*dto.DashboardStats, error)
}

// DashboardHandler exposes read-only projections and system health.
type DashboardHandler struct {
	service statsProvider
	metrics *service.MetricsService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(svc *service.DashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{service: svc, metrics: metrics}
}

// Stats godoc
// @Summary Aggregate schedule statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// System godoc
// @Summary System metrics snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/system [get]
func (h *DashboardHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

// Health godoc
// @Summary Liveness probe
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *DashboardHandler) Health(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"}, nil)
}
