package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

type surveyRepository interface {
	List(ctx context.Context) ([]models.Survey, error)
	ListByCreator(ctx context.Context, userID string) ([]models.Survey, error)
	FindByID(ctx context.Context, id string) (*models.Survey, error)
	Create(ctx context.Context, survey *models.Survey) error
	Update(ctx context.Context, survey *models.Survey) error
	Delete(ctx context.Context, id string) error
}

// SurveyService manages surveys. Only the creating admin may change or delete a survey.
type SurveyService struct {
	repo      surveyRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSurveyService constructs the service.
func NewSurveyService(repo surveyRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SurveyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SurveyService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns all surveys for admins and the caller's own surveys otherwise.
func (s *SurveyService) List(ctx context.Context, caller models.Caller) ([]models.Survey, error) {
	var (
		surveys []models.Survey
		err     error
	)
	if caller.IsAdmin() {
		surveys, err = s.repo.List(ctx)
	} else {
		surveys, err = s.repo.ListByCreator(ctx, caller.ID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list surveys")
	}
	if surveys == nil {
		surveys = []models.Survey{}
	}
	return surveys, nil
}

// Get returns a survey by id.
func (s *SurveyService) Get(ctx context.Context, id string) (*models.Survey, error) {
	survey, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}
	return survey, nil
}

// Create stores a new survey owned by the calling admin.
func (s *SurveyService) Create(ctx context.Context, caller models.Caller, req dto.CreateSurveyRequest) (*models.Survey, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can create surveys")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid survey payload")
	}

	survey := &models.Survey{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   caller.ID,
	}
	if survey.Status == "" {
		survey.Status = models.SurveyStatusDraft
	}
	if err := checkSurveyWindow(survey); err != nil {
		return nil, err
	}
	if req.Demographics != nil {
		doc, err := toJSONText(req.Demographics)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid demographics")
		}
		survey.Demographics = doc
	}

	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create survey")
	}
	s.logger.Info("survey created", zap.String("survey_id", survey.ID), zap.String("created_by", caller.ID))
	return survey, nil
}

// Update applies partial changes. The creator never changes.
func (s *SurveyService) Update(ctx context.Context, caller models.Caller, id string, req dto.UpdateSurveyRequest) (*models.Survey, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid survey payload")
	}
	survey, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		survey.Title = *req.Title
	}
	if req.Description != nil {
		survey.Description = req.Description
	}
	if req.Status != nil {
		survey.Status = *req.Status
	}
	if req.StartDate != nil {
		survey.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		survey.EndDate = req.EndDate
	}
	if req.Demographics != nil {
		doc, err := toJSONText(req.Demographics)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid demographics")
		}
		survey.Demographics = doc
	}
	if err := checkSurveyWindow(survey); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, survey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update survey")
	}
	_ = s.cache.Invalidate(ctx, reportCachePattern)
	return survey, nil
}

// Delete removes a survey with its questions, assignments and responses.
func (s *SurveyService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete survey")
	}
	_ = s.cache.Invalidate(ctx, reportCachePattern)
	s.logger.Info("survey deleted", zap.String("survey_id", id), zap.String("deleted_by", caller.ID))
	return nil
}

func (s *SurveyService) owned(ctx context.Context, caller models.Caller, id string) (*models.Survey, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can modify surveys")
	}
	survey, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey.CreatedBy != caller.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "survey belongs to another admin")
	}
	return survey, nil
}

func checkSurveyWindow(survey *models.Survey) error {
	if survey.StartDate != nil && survey.EndDate != nil && survey.EndDate.Before(*survey.StartDate) {
		return appErrors.WithDetails(appErrors.ErrValidation, appErrors.FieldError{Field: "endDate", Message: "must not be before startDate"})
	}
	return nil
}

func toJSONText(v interface{}) (*types.JSONText, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := types.JSONText(raw)
	return &doc, nil
}
