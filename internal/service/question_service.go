package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

type questionRepository interface {
	ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, error)
	FindByID(ctx context.Context, id string) (*models.Question, error)
	Create(ctx context.Context, question *models.Question) error
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id string) error
}

type surveyReader interface {
	FindByID(ctx context.Context, id string) (*models.Survey, error)
}

// QuestionService manages the question list of a survey.
type QuestionService struct {
	repo      questionRepository
	surveys   surveyReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuestionService constructs the service.
func NewQuestionService(repo questionRepository, surveys surveyReader, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{repo: repo, surveys: surveys, validator: validate, logger: logger}
}

// List returns the survey's questions in display order.
func (s *QuestionService) List(ctx context.Context, surveyID string) ([]models.Question, error) {
	if err := s.ensureSurvey(ctx, surveyID); err != nil {
		return nil, err
	}
	questions, err := s.repo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}
	if questions == nil {
		questions = []models.Question{}
	}
	return questions, nil
}

// Create appends a question to a survey.
func (s *QuestionService) Create(ctx context.Context, caller models.Caller, surveyID string, req dto.QuestionRequest) (*models.Question, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can manage questions")
	}
	if err := s.ensureSurvey(ctx, surveyID); err != nil {
		return nil, err
	}
	question := &models.Question{SurveyID: surveyID}
	if err := s.apply(question, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
	}
	return question, nil
}

// Update replaces the question definition. Existing answers are not rewritten.
func (s *QuestionService) Update(ctx context.Context, caller models.Caller, id string, req dto.QuestionRequest) (*models.Question, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can manage questions")
	}
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	if err := s.apply(question, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, question); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question")
	}
	return question, nil
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if !caller.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins can manage questions")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}
	return nil
}

func (s *QuestionService) apply(question *models.Question, req dto.QuestionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid question payload")
	}
	options, err := normalizeOptions(req.Type, req.Options)
	if err != nil {
		return err
	}

	question.Question = strings.TrimSpace(req.Question)
	question.Type = req.Type
	question.Order = req.Order
	question.Required = true
	if req.Required != nil {
		question.Required = *req.Required
	}
	question.Options = nil
	if len(options) > 0 {
		doc, err := toJSONText(options)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode options")
		}
		question.Options = doc
	}
	return nil
}

func (s *QuestionService) ensureSurvey(ctx context.Context, surveyID string) error {
	if _, err := s.surveys.FindByID(ctx, surveyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}
	return nil
}

// normalizeOptions trims options and enforces the per-type rules: radio and checkbox need at
// least two distinct options, text takes none, scale may carry labels.
func normalizeOptions(qType models.QuestionType, raw []string) ([]string, error) {
	options := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, opt := range raw {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return nil, optionsError("must not contain empty values")
		}
		if _, dup := seen[opt]; dup {
			return nil, optionsError("must not contain duplicates")
		}
		seen[opt] = struct{}{}
		options = append(options, opt)
	}

	switch {
	case qType.RequiresOptions() && len(options) < 2:
		return nil, optionsError("requires at least 2 entries for " + string(qType) + " questions")
	case qType == models.QuestionTypeText && len(options) > 0:
		return nil, optionsError("are not allowed for text questions")
	}
	return options, nil
}

func optionsError(message string) error {
	return appErrors.WithDetails(appErrors.ErrValidation, appErrors.FieldError{Field: "options", Message: message})
}
