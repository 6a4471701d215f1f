package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

type statsRepository interface {
	AdminCounts(ctx context.Context, dayStart, dayEnd time.Time) (*dto.AdminStatCounts, error)
	ResearcherCounts(ctx context.Context, researcherID string, dayStart, dayEnd time.Time) (*dto.ResearcherStatCounts, error)
}

// StatsService computes dashboard numbers from stored state on every call.
// Only completed responses count; rates are 0 when there is nothing to divide.
type StatsService struct {
	repo     statsRepository
	metrics  *MetricsService
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewStatsService constructs the service. "Today" is the calendar day in loc.
func NewStatsService(repo statsRepository, metrics *MetricsService, loc *time.Location, logger *zap.Logger) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, metrics: metrics, location: loc, logger: logger, now: time.Now}
}

// ForCaller returns admin stats for admins and personal stats for researchers.
func (s *StatsService) ForCaller(ctx context.Context, caller models.Caller) (interface{}, error) {
	switch caller.Role {
	case models.RoleAdmin:
		return s.Admin(ctx)
	case models.RoleResearcher:
		return s.Researcher(ctx, caller.ID)
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role")
}

// Admin returns organisation-wide statistics.
func (s *StatsService) Admin(ctx context.Context) (*dto.AdminStats, error) {
	start, end := s.today()
	began := time.Now()
	counts, err := s.repo.AdminCounts(ctx, start, end)
	s.metrics.ObserveDBQuery("admin_stats", time.Since(began))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}
	return &dto.AdminStats{
		ActiveSurveys:     counts.ActiveSurveys,
		TotalResponses:    counts.CompletedResponses,
		ActiveResearchers: counts.ActiveResearchers,
		CompletionRate:    models.Percent(counts.CompletedResponses, counts.TotalResponses),
	}, nil
}

// Researcher returns statistics over one researcher's own responses.
func (s *StatsService) Researcher(ctx context.Context, researcherID string) (*dto.ResearcherStats, error) {
	start, end := s.today()
	began := time.Now()
	counts, err := s.repo.ResearcherCounts(ctx, researcherID, start, end)
	s.metrics.ObserveDBQuery("researcher_stats", time.Since(began))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}
	return &dto.ResearcherStats{
		CompletedSurveys:  counts.CompletedResponses,
		InProgressSurveys: counts.DraftAssignments,
		TodaySurveys:      counts.CompletedToday,
		SuccessRate:       models.Percent(counts.CompletedResponses, counts.TotalResponses),
	}, nil
}

func (s *StatsService) today() (time.Time, time.Time) {
	now := s.now().In(s.location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	return start, start.AddDate(0, 0, 1)
}
