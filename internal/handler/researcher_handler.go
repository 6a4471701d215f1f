package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/election-survey-api/internal/models"
	"github.com/noah-isme/election-survey-api/pkg/response"
)

type researcherService interface {
	List(ctx context.Context, caller models.Caller) ([]models.User, error)
}

// ResearcherHandler lists field researchers.
type ResearcherHandler struct {
	service researcherService
}

// NewResearcherHandler constructs the handler.
func NewResearcherHandler(svc researcherService) *ResearcherHandler {
	return &ResearcherHandler{service: svc}
}

// List godoc
// @Summary List researchers
// @Tags Researchers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /researchers [get]
func (h *ResearcherHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	users, err := h.service.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, users)
}
