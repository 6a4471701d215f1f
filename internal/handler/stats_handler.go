package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/election-survey-api/internal/models"
	"github.com/noah-isme/election-survey-api/pkg/response"
)

type statsService interface {
	ForCaller(ctx context.Context, caller models.Caller) (interface{}, error)
}

// StatsHandler serves dashboard statistics.
type StatsHandler struct {
	service statsService
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(svc statsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Get godoc
// @Summary Dashboard statistics
// @Description Organisation totals for admins, personal progress for researchers
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	stats, err := h.service.ForCaller(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
