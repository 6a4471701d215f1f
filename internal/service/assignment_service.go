package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	"github.com/noah-isme/election-survey-api/pkg/database"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, researcherID string) ([]dto.AssignmentDetail, error)
	FindDetail(ctx context.Context, id string) (*dto.AssignmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
}

type regionReader interface {
	FindByID(ctx context.Context, id string) (*models.Region, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AssignmentService is the assignment engine: it owns quota, progress and status of
// survey assignments and scopes every read to the caller's role.
type AssignmentService struct {
	repo      assignmentRepository
	surveys   surveyReader
	regions   regionReader
	users     userReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// AssignmentServiceParams groups constructor dependencies.
type AssignmentServiceParams struct {
	Repo      assignmentRepository
	Surveys   surveyReader
	Regions   regionReader
	Users     userReader
	Cache     *CacheService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(params AssignmentServiceParams) *AssignmentService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		repo:      params.Repo,
		surveys:   params.Surveys,
		regions:   params.Regions,
		users:     params.Users,
		cache:     params.Cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create binds a survey to a region with an optional researcher and a quota.
// New assignments start pending with zero progress.
func (s *AssignmentService) Create(ctx context.Context, caller models.Caller, req dto.CreateAssignmentRequest) (*dto.AssignmentView, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can create assignments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid assignment payload")
	}

	if _, err := s.surveys.FindByID(ctx, req.SurveyID); err != nil {
		return nil, lookupError(err, "survey")
	}
	if _, err := s.regions.FindByID(ctx, req.RegionID); err != nil {
		return nil, lookupError(err, "region")
	}
	researcherID := req.ResearcherID
	if researcherID != nil && *researcherID == "" {
		researcherID = nil
	}
	if researcherID != nil {
		if err := s.ensureResearcher(ctx, *researcherID); err != nil {
			return nil, err
		}
	}

	assignment := &models.Assignment{
		SurveyID:        req.SurveyID,
		RegionID:        req.RegionID,
		ResearcherID:    researcherID,
		TargetResponses: req.TargetResponses,
		Status:          models.AssignmentStatusPending,
		AssignedAt:      s.now().UTC(),
		DueDate:         req.DueDate,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		switch {
		case database.IsForeignKeyViolation(err):
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "referenced survey, region or researcher not found")
		case database.IsCheckViolation(err):
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment quota")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("survey_id", assignment.SurveyID),
		zap.String("region_id", assignment.RegionID),
		zap.Int("target_responses", assignment.TargetResponses),
	)
	_ = s.cache.Invalidate(ctx, reportCachePattern)

	return s.view(ctx, assignment.ID)
}

// List returns every assignment for admins and only the caller's own for researchers.
func (s *AssignmentService) List(ctx context.Context, caller models.Caller) ([]dto.AssignmentView, error) {
	rows, err := s.scoped(ctx, caller)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]dto.AssignmentView, 0, len(rows))
	for i := range rows {
		views = append(views, newAssignmentView(rows[i], now))
	}
	return views, nil
}

// Get returns one assignment. Researchers cannot see rows that are not theirs.
func (s *AssignmentService) Get(ctx context.Context, caller models.Caller, id string) (*dto.AssignmentView, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, lookupError(err, "assignment")
	}
	if !caller.IsAdmin() && !detail.OwnedBy(caller.ID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	view := newAssignmentView(*detail, s.now())
	return &view, nil
}

// Update applies an explicit administrative change. Completed assignments are terminal and
// the quota can never drop below recorded progress.
func (s *AssignmentService) Update(ctx context.Context, caller models.Caller, id string, req dto.UpdateAssignmentRequest) (*dto.AssignmentView, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can update assignments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid assignment payload")
	}

	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "assignment")
	}

	if req.TargetResponses != nil {
		if *req.TargetResponses < assignment.CompletedResponses {
			return nil, appErrors.WithDetails(appErrors.ErrValidation, appErrors.FieldError{
				Field:   "targetResponses",
				Message: fmt.Sprintf("must be at least the %d completed responses", assignment.CompletedResponses),
			})
		}
		assignment.TargetResponses = *req.TargetResponses
	}
	switch {
	case req.Unassign:
		assignment.ResearcherID = nil
	case req.ResearcherID != nil:
		if err := s.ensureResearcher(ctx, *req.ResearcherID); err != nil {
			return nil, err
		}
		researcherID := *req.ResearcherID
		assignment.ResearcherID = &researcherID
	}
	switch {
	case req.ClearDueDate:
		assignment.DueDate = nil
	case req.DueDate != nil:
		assignment.DueDate = req.DueDate
	}
	if req.Status != nil {
		if assignment.Status == models.AssignmentStatusCompleted && *req.Status != models.AssignmentStatusCompleted {
			return nil, appErrors.Clone(appErrors.ErrConflict, "completed assignments cannot be reopened")
		}
		assignment.Status = *req.Status
	}

	if err := s.repo.Update(ctx, assignment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, findErr := s.repo.FindByID(ctx, id); findErr != nil {
				return nil, lookupError(findErr, "assignment")
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "completed responses now exceed the requested quota")
		}
		if database.IsForeignKeyViolation(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "researcher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	s.logger.Info("assignment updated",
		zap.String("assignment_id", id),
		zap.String("status", string(assignment.Status)),
		zap.Int("target_responses", assignment.TargetResponses),
	)
	_ = s.cache.Invalidate(ctx, reportCachePattern)

	return s.view(ctx, id)
}

// MapMarkers positions the caller's assignments using their region's stored coordinates.
// Regions without coordinates yield markers flagged as having no location.
func (s *AssignmentService) MapMarkers(ctx context.Context, caller models.Caller) ([]dto.MapMarker, error) {
	rows, err := s.scoped(ctx, caller)
	if err != nil {
		return nil, err
	}
	now := s.now()
	markers := make([]dto.MapMarker, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		marker := dto.MapMarker{
			AssignmentID:       row.ID,
			SurveyTitle:        row.SurveyTitle,
			RegionID:           row.RegionID,
			RegionName:         row.RegionName,
			City:               row.RegionCity,
			TargetResponses:    row.TargetResponses,
			CompletedResponses: row.CompletedResponses,
			ProgressPercent:    row.ProgressPercent(),
			Status:             row.DisplayStatus(now),
		}
		if point, ok := parseGeoPoint(row); ok {
			lat, lng := point.Lat, point.Lng
			marker.HasLocation = true
			marker.Lat = &lat
			marker.Lng = &lng
		}
		markers = append(markers, marker)
	}
	return markers, nil
}

func (s *AssignmentService) scoped(ctx context.Context, caller models.Caller) ([]dto.AssignmentDetail, error) {
	var filter string
	if !caller.IsAdmin() {
		if caller.ID == "" {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
		filter = caller.ID
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	if filter == "" {
		return rows, nil
	}
	owned := rows[:0]
	for _, row := range rows {
		if row.OwnedBy(filter) {
			owned = append(owned, row)
		}
	}
	return owned, nil
}

func (s *AssignmentService) view(ctx context.Context, id string) (*dto.AssignmentView, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, lookupError(err, "assignment")
	}
	view := newAssignmentView(*detail, s.now())
	return &view, nil
}

func (s *AssignmentService) ensureResearcher(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "researcher")
	}
	if user.Role != models.RoleResearcher {
		return appErrors.Clone(appErrors.ErrNotFound, "researcher not found")
	}
	return nil
}

func newAssignmentView(detail dto.AssignmentDetail, now time.Time) dto.AssignmentView {
	return dto.AssignmentView{
		AssignmentDetail: detail,
		ProgressPercent:  detail.ProgressPercent(),
		DisplayStatus:    detail.DisplayStatus(now),
		OverQuota:        detail.OverQuota(),
	}
}

func parseGeoPoint(row *dto.AssignmentDetail) (models.GeoPoint, bool) {
	if row.RegionCoordinates == nil || len(*row.RegionCoordinates) == 0 {
		return models.GeoPoint{}, false
	}
	var raw struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal(*row.RegionCoordinates, &raw); err != nil || raw.Lat == nil || raw.Lng == nil {
		return models.GeoPoint{}, false
	}
	return models.GeoPoint{Lat: *raw.Lat, Lng: *raw.Lng}, true
}

// lookupError maps a missing referenced row to NotFound and anything else to Internal.
func lookupError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}
