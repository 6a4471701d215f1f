package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

// reportCachePattern matches every cached report; writes that change collection numbers purge it.
const reportCachePattern = "reports:*"

type reportRepository interface {
	Responses(ctx context.Context) ([]dto.ResponsesReportRow, error)
	Performance(ctx context.Context) ([]dto.PerformanceReportRow, error)
	Demographics(ctx context.Context) ([]dto.DemographicsReportRow, error)
}

// ReportService assembles admin reports, optionally served from redis.
type ReportService struct {
	repo    reportRepository
	cache   *CacheService
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewReportService constructs the report service. A nil cache disables caching.
func NewReportService(repo reportRepository, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, cache: cache, metrics: metrics, ttl: ttl, logger: logger, now: time.Now}
}

// Generate returns the report rows for reportType. The bool reports a cache hit.
func (s *ReportService) Generate(ctx context.Context, caller models.Caller, reportType dto.ReportType) (*dto.Report, bool, error) {
	if !caller.IsAdmin() {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "only admins can view reports")
	}
	if !reportType.Valid() {
		return nil, false, appErrors.WithDetails(appErrors.ErrValidation, appErrors.FieldError{
			Field:   "type",
			Message: "must be one of: responses performance demographics",
		})
	}

	key := reportCacheKey(reportType)
	if cached, ok := s.cached(ctx, key, reportType); ok {
		return cached, true, nil
	}

	report := &dto.Report{Type: reportType}
	start := time.Now()
	rows, err := s.load(ctx, reportType)
	s.metrics.ObserveDBQuery("report_"+string(reportType), time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build report")
	}
	report.GeneratedAt = s.now().UTC()
	report.Rows = rows

	if err := s.cache.Set(ctx, key, report, s.ttl); err != nil {
		s.logger.Warn("report cache write failed", zap.String("type", string(reportType)), zap.Error(err))
	}
	return report, false, nil
}

func (s *ReportService) load(ctx context.Context, reportType dto.ReportType) (interface{}, error) {
	switch reportType {
	case dto.ReportTypeResponses:
		rows, err := s.repo.Responses(ctx)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].ProgressPercent = clampPercent(models.Percent(rows[i].CompletedResponses, rows[i].TargetResponses))
		}
		return nonNil(rows), nil
	case dto.ReportTypePerformance:
		rows, err := s.repo.Performance(ctx)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			total := rows[i].CompletedResponses + rows[i].DraftResponses
			rows[i].SuccessRate = models.Percent(rows[i].CompletedResponses, total)
		}
		return nonNil(rows), nil
	case dto.ReportTypeDemographics:
		rows, err := s.repo.Demographics(ctx)
		if err != nil {
			return nil, err
		}
		return nonNil(rows), nil
	}
	return nil, fmt.Errorf("unsupported report type %q", reportType)
}

// cached decodes a stored report back into its typed rows so exports can use it too.
func (s *ReportService) cached(ctx context.Context, key string, reportType dto.ReportType) (*dto.Report, bool) {
	var rows interface{}
	switch reportType {
	case dto.ReportTypeResponses:
		rows = &[]dto.ResponsesReportRow{}
	case dto.ReportTypePerformance:
		rows = &[]dto.PerformanceReportRow{}
	case dto.ReportTypeDemographics:
		rows = &[]dto.DemographicsReportRow{}
	default:
		return nil, false
	}
	report := &dto.Report{Rows: rows}
	hit, _ := s.cache.Get(ctx, key, report)
	if !hit {
		return nil, false
	}
	switch typed := rows.(type) {
	case *[]dto.ResponsesReportRow:
		report.Rows = nonNil(*typed)
	case *[]dto.PerformanceReportRow:
		report.Rows = nonNil(*typed)
	case *[]dto.DemographicsReportRow:
		report.Rows = nonNil(*typed)
	}
	report.Type = reportType
	return report, true
}

func reportCacheKey(reportType dto.ReportType) string {
	return "reports:" + string(reportType)
}

func clampPercent(p int) int {
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
