package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	"github.com/noah-isme/election-survey-api/pkg/response"
)

type assignmentService interface {
	Create(ctx context.Context, caller models.Caller, req dto.CreateAssignmentRequest) (*dto.AssignmentView, error)
	List(ctx context.Context, caller models.Caller) ([]dto.AssignmentView, error)
	Get(ctx context.Context, caller models.Caller, id string) (*dto.AssignmentView, error)
	Update(ctx context.Context, caller models.Caller, id string, req dto.UpdateAssignmentRequest) (*dto.AssignmentView, error)
	MapMarkers(ctx context.Context, caller models.Caller) ([]dto.MapMarker, error)
}

// AssignmentHandler exposes the assignment engine over HTTP.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(svc assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List godoc
// @Summary List assignments
// @Description Researchers only receive their own assignments
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Map godoc
// @Summary Assignment map markers
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assignments/map [get]
func (h *AssignmentHandler) Map(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	markers, err := h.service.MapMarkers(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, markers)
}

// Get godoc
// @Summary Get assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Create godoc
// @Summary Create assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateAssignmentRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update assignment
// @Description Reassign, retarget, reschedule or change the status of an assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.UpdateAssignmentRequest true "Assignment changes"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id} [put]
func (h *AssignmentHandler) Update(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateAssignmentRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}
