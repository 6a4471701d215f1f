package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

type regionRepository interface {
	List(ctx context.Context) ([]models.Region, error)
	FindByID(ctx context.Context, id string) (*models.Region, error)
	Create(ctx context.Context, region *models.Region) error
	Update(ctx context.Context, region *models.Region) error
	Delete(ctx context.Context, id string) error
}

// RegionService manages field regions.
type RegionService struct {
	repo      regionRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegionService constructs the service.
func NewRegionService(repo regionRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RegionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegionService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns all regions.
func (s *RegionService) List(ctx context.Context) ([]models.Region, error) {
	regions, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list regions")
	}
	if regions == nil {
		regions = []models.Region{}
	}
	return regions, nil
}

// Get returns a region by id.
func (s *RegionService) Get(ctx context.Context, id string) (*models.Region, error) {
	region, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "region not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load region")
	}
	return region, nil
}

// Create stores a region.
func (s *RegionService) Create(ctx context.Context, caller models.Caller, req dto.RegionRequest) (*models.Region, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can manage regions")
	}
	region := &models.Region{}
	if err := s.apply(region, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, region); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create region")
	}
	return region, nil
}

// Update replaces the editable region fields.
func (s *RegionService) Update(ctx context.Context, caller models.Caller, id string, req dto.RegionRequest) (*models.Region, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can manage regions")
	}
	region, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(region, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, region); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "region not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update region")
	}
	_ = s.cache.Invalidate(ctx, reportCachePattern)
	return region, nil
}

// Delete removes a region together with its assignments.
func (s *RegionService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if !caller.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins can manage regions")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "region not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete region")
	}
	_ = s.cache.Invalidate(ctx, reportCachePattern)
	s.logger.Info("region deleted", zap.String("region_id", id))
	return nil
}

func (s *RegionService) apply(region *models.Region, req dto.RegionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid region payload")
	}
	region.Name = req.Name
	region.Description = req.Description
	region.City = req.City
	region.State = req.State
	region.Coordinates = nil
	if req.Coordinates != nil {
		doc, err := toJSONText(req.Coordinates)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode coordinates")
		}
		region.Coordinates = doc
	}
	return nil
}
