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
	"github.com/noah-isme/election-survey-api/internal/repository"
	"github.com/noah-isme/election-survey-api/pkg/database"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

type responseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Response, error)
	List(ctx context.Context, filter models.ResponseFilter) ([]models.Response, error)
	CreateDraft(ctx context.Context, response *models.Response) error
	CreateCompleted(ctx context.Context, response *models.Response) (int, error)
	UpdateDraft(ctx context.Context, response *models.Response) error
	CompleteDraft(ctx context.Context, response *models.Response) (int, error)
}

type assignmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
}

type questionLister interface {
	ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, error)
}

// ResponseService ingests field responses. Completing a response advances its assignment's
// progress exactly once; drafts never count. Assignment status is left untouched.
type ResponseService struct {
	repo        responseRepository
	assignments assignmentReader
	questions   questionLister
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// ResponseServiceParams groups constructor dependencies.
type ResponseServiceParams struct {
	Repo        responseRepository
	Assignments assignmentReader
	Questions   questionLister
	Cache       *CacheService
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewResponseService constructs the service.
func NewResponseService(params ResponseServiceParams) *ResponseService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseService{
		repo:        params.Repo,
		assignments: params.Assignments,
		questions:   params.Questions,
		cache:       params.Cache,
		metrics:     params.Metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Submit records a new response against an assignment owned by the calling researcher.
func (s *ResponseService) Submit(ctx context.Context, caller models.Caller, req dto.SubmitResponseRequest) (*models.Response, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid response payload")
	}
	status := req.Status
	if status == "" {
		status = models.ResponseStatusDraft
	}

	assignment, err := s.assignments.FindByID(ctx, req.AssignmentID)
	if err != nil {
		return nil, lookupError(err, "assignment")
	}
	if err := authorizeSubmitter(caller, assignment); err != nil {
		return nil, err
	}

	response := &models.Response{
		SurveyID:     assignment.SurveyID,
		AssignmentID: assignment.ID,
		ResearcherID: caller.ID,
	}
	if err := s.fill(ctx, response, req.Answers, req.Demographics, req.Location, status == models.ResponseStatusCompleted); err != nil {
		return nil, err
	}

	if status == models.ResponseStatusCompleted {
		completed, err := s.repo.CreateCompleted(ctx, response)
		if err != nil {
			return nil, s.completionError(err, assignment)
		}
		s.afterCompletion(assignment, completed)
	} else {
		if err := s.repo.CreateDraft(ctx, response); err != nil {
			if database.IsForeignKeyViolation(err) {
				return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "assignment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save response")
		}
	}

	s.metrics.RecordResponse(response.Status)
	_ = s.cache.Invalidate(ctx, reportCachePattern)
	return response, nil
}

// UpdateDraft re-saves a draft in place, optionally completing it. Re-saving a draft never
// touches progress; only the transition into completed does, and only once.
func (s *ResponseService) UpdateDraft(ctx context.Context, caller models.Caller, id string, req dto.UpdateResponseRequest) (*models.Response, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid response payload")
	}

	response, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "response")
	}
	if response.ResearcherID != caller.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "response belongs to another researcher")
	}
	if response.Status != models.ResponseStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "response is already completed")
	}

	assignment, err := s.assignments.FindByID(ctx, response.AssignmentID)
	if err != nil {
		return nil, lookupError(err, "assignment")
	}
	if err := authorizeSubmitter(caller, assignment); err != nil {
		return nil, err
	}

	completing := req.Status == models.ResponseStatusCompleted
	if err := s.fill(ctx, response, req.Answers, req.Demographics, req.Location, completing); err != nil {
		return nil, err
	}

	if completing {
		completed, err := s.repo.CompleteDraft(ctx, response)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "response is already completed")
			}
			return nil, s.completionError(err, assignment)
		}
		s.afterCompletion(assignment, completed)
		s.metrics.RecordResponse(models.ResponseStatusCompleted)
	} else {
		if err := s.repo.UpdateDraft(ctx, response); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "response is already completed")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save response")
		}
	}

	_ = s.cache.Invalidate(ctx, reportCachePattern)
	return response, nil
}

// List returns the caller's own responses, optionally for one assignment. Admins see every
// response, or those of the given assignment.
func (s *ResponseService) List(ctx context.Context, caller models.Caller, assignmentID string) ([]models.Response, error) {
	filter := models.ResponseFilter{AssignmentID: assignmentID}
	if !caller.IsAdmin() {
		if caller.ID == "" {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
		filter.ResearcherID = caller.ID
	}
	responses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list responses")
	}
	if responses == nil {
		responses = []models.Response{}
	}
	return responses, nil
}

func (s *ResponseService) fill(ctx context.Context, response *models.Response, answers map[string]json.RawMessage, demographics *models.RespondentDemographics, location *models.GeoPoint, completing bool) error {
	questions, err := s.questions.ListBySurvey(ctx, response.SurveyID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	if problems := validateAnswers(questions, answers, completing); len(problems) > 0 {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid answers"), problems...)
	}

	raw, err := json.Marshal(answers)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answers")
	}
	response.Answers = types.JSONText(raw)
	if demographics != nil {
		if response.Demographics, err = toJSONText(demographics); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid demographics")
		}
	}
	if location != nil {
		if response.Location, err = toJSONText(location); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location")
		}
	}
	return nil
}

func (s *ResponseService) completionError(err error, assignment *models.Assignment) error {
	switch {
	case errors.Is(err, repository.ErrQuotaReached):
		s.metrics.RecordQuotaRejection()
		s.logger.Warn("completed response rejected at quota",
			zap.String("assignment_id", assignment.ID),
			zap.Int("target_responses", assignment.TargetResponses),
		)
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "assignment quota reached")
	case database.IsForeignKeyViolation(err):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "assignment not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save response")
}

func (s *ResponseService) afterCompletion(assignment *models.Assignment, completed int) {
	s.logger.Info("response completed",
		zap.String("assignment_id", assignment.ID),
		zap.Int("completed_responses", completed),
		zap.Int("target_responses", assignment.TargetResponses),
	)
	if completed >= assignment.TargetResponses {
		s.logger.Info("assignment quota reached", zap.String("assignment_id", assignment.ID))
	}
}

func authorizeSubmitter(caller models.Caller, assignment *models.Assignment) error {
	if caller.IsAdmin() {
		return nil
	}
	if !assignment.OwnedBy(caller.ID) {
		return appErrors.Clone(appErrors.ErrForbidden, "assignment is not assigned to you")
	}
	return nil
}
