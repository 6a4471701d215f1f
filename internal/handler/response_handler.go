package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	"github.com/noah-isme/election-survey-api/pkg/response"
)

type responseService interface {
	Submit(ctx context.Context, caller models.Caller, req dto.SubmitResponseRequest) (*models.Response, error)
	UpdateDraft(ctx context.Context, caller models.Caller, id string, req dto.UpdateResponseRequest) (*models.Response, error)
	List(ctx context.Context, caller models.Caller, assignmentID string) ([]models.Response, error)
}

// ResponseHandler exposes response ingestion endpoints.
type ResponseHandler struct {
	service responseService
}

// NewResponseHandler constructs the handler.
func NewResponseHandler(svc responseService) *ResponseHandler {
	return &ResponseHandler{service: svc}
}

// List godoc
// @Summary List responses
// @Description Without assignmentId researchers get their own responses; admins may filter by assignment
// @Tags Responses
// @Produce json
// @Param assignmentId query string false "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /responses [get]
func (h *ResponseHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), caller, c.Query("assignmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Submit godoc
// @Summary Submit response
// @Description Store a draft or completed interview for one of the caller's assignments
// @Tags Responses
// @Accept json
// @Produce json
// @Param payload body dto.SubmitResponseRequest true "Response payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /responses [post]
func (h *ResponseHandler) Submit(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitResponseRequest
	if !bindJSON(c, &req, "invalid response payload") {
		return
	}
	item, err := h.service.Submit(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update draft response
// @Tags Responses
// @Accept json
// @Produce json
// @Param id path string true "Response ID"
// @Param payload body dto.UpdateResponseRequest true "Response payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /responses/{id} [put]
func (h *ResponseHandler) Update(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateResponseRequest
	if !bindJSON(c, &req, "invalid response payload") {
		return
	}
	item, err := h.service.UpdateDraft(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}
