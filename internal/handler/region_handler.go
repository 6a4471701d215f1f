package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	"github.com/noah-isme/election-survey-api/pkg/response"
)

type regionService interface {
	List(ctx context.Context) ([]models.Region, error)
	Get(ctx context.Context, id string) (*models.Region, error)
	Create(ctx context.Context, caller models.Caller, req dto.RegionRequest) (*models.Region, error)
	Update(ctx context.Context, caller models.Caller, id string, req dto.RegionRequest) (*models.Region, error)
	Delete(ctx context.Context, caller models.Caller, id string) error
}

// RegionHandler exposes region endpoints.
type RegionHandler struct {
	service regionService
}

// NewRegionHandler constructs the handler.
func NewRegionHandler(svc regionService) *RegionHandler {
	return &RegionHandler{service: svc}
}

// List godoc
// @Summary List regions
// @Tags Regions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /regions [get]
func (h *RegionHandler) List(c *gin.Context) {
	regions, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, regions)
}

// Get godoc
// @Summary Get region
// @Tags Regions
// @Produce json
// @Param id path string true "Region ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /regions/{id} [get]
func (h *RegionHandler) Get(c *gin.Context) {
	region, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, region)
}

// Create godoc
// @Summary Create region
// @Tags Regions
// @Accept json
// @Produce json
// @Param payload body dto.RegionRequest true "Region payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /regions [post]
func (h *RegionHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.RegionRequest
	if !bindJSON(c, &req, "invalid region payload") {
		return
	}
	region, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, region)
}

// Update godoc
// @Summary Replace region
// @Tags Regions
// @Accept json
// @Produce json
// @Param id path string true "Region ID"
// @Param payload body dto.RegionRequest true "Region payload"
// @Success 200 {object} response.Envelope
// @Router /regions/{id} [put]
func (h *RegionHandler) Update(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.RegionRequest
	if !bindJSON(c, &req, "invalid region payload") {
		return
	}
	region, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, region)
}

// Delete godoc
// @Summary Delete region
// @Tags Regions
// @Produce json
// @Param id path string true "Region ID"
// @Success 200 {object} response.Envelope
// @Router /regions/{id} [delete]
func (h *RegionHandler) Delete(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), caller, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "deleted": true})
}
