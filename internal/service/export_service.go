package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
	"github.com/noah-isme/election-survey-api/pkg/export"
)

type reportGenerator interface {
	Generate(ctx context.Context, caller models.Caller, reportType dto.ReportType) (*dto.Report, bool, error)
}

type datasetRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered report ready to be streamed as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders reports into downloadable CSV or PDF files.
type ExportService struct {
	reports   reportGenerator
	renderers map[dto.ReportFormat]datasetRenderer
	logger    *zap.Logger
}

// NewExportService wires the report generator with the csv and pdf renderers.
func NewExportService(reports reportGenerator, csv, pdf datasetRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	renderers := map[dto.ReportFormat]datasetRenderer{}
	if csv != nil {
		renderers[dto.ReportFormatCSV] = csv
	}
	if pdf != nil {
		renderers[dto.ReportFormatPDF] = pdf
	}
	return &ExportService{reports: reports, renderers: renderers, logger: logger}
}

// Download generates the report and renders it in the requested format.
func (s *ExportService) Download(ctx context.Context, caller models.Caller, reportType dto.ReportType, format dto.ReportFormat) (*ExportFile, error) {
	if format == "" {
		format = dto.ReportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, appErrors.FieldError{Field: "format", Message: "must be one of: csv pdf"})
	}

	report, _, err := s.reports.Generate(ctx, caller, reportType)
	if err != nil {
		return nil, err
	}
	dataset, err := buildDataset(report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare export")
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("report exported",
		zap.String("type", string(reportType)),
		zap.String("format", string(format)),
		zap.Int("bytes", len(payload)),
	)
	return &ExportFile{
		Filename:    fmt.Sprintf("%s_report_%s.%s", reportType, report.GeneratedAt.Format("20060102_150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

var (
	responsesColumns = []export.Column{
		{Header: "Survey"}, {Header: "Region"}, {Header: "City"}, {Header: "State"},
		{Header: "Target", Numeric: true}, {Header: "Completed", Numeric: true},
		{Header: "Progress (%)", Numeric: true}, {Header: "Drafts", Numeric: true},
	}
	performanceColumns = []export.Column{
		{Header: "Researcher"}, {Header: "Assignments", Numeric: true},
		{Header: "Completed", Numeric: true}, {Header: "Drafts", Numeric: true},
		{Header: "Success Rate (%)", Numeric: true}, {Header: "Last Completed"},
	}
	demographicsColumns = []export.Column{
		{Header: "Dimension"}, {Header: "Value"}, {Header: "Responses", Numeric: true},
	}
)

func buildDataset(report *dto.Report) (export.Dataset, error) {
	data := export.Dataset{Subtitle: "Generated " + report.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")}
	itoa := strconv.Itoa

	switch rows := report.Rows.(type) {
	case []dto.ResponsesReportRow:
		data.Title, data.Columns = "Responses by Assignment", responsesColumns
		for _, r := range rows {
			data.Rows = append(data.Rows, []string{
				r.SurveyTitle, r.RegionName, r.City, r.State,
				itoa(r.TargetResponses), itoa(r.CompletedResponses), itoa(r.ProgressPercent), itoa(r.DraftResponses),
			})
		}
	case []dto.PerformanceReportRow:
		data.Title, data.Columns = "Researcher Performance", performanceColumns
		for _, r := range rows {
			data.Rows = append(data.Rows, []string{
				r.ResearcherName, itoa(r.Assignments), itoa(r.CompletedResponses), itoa(r.DraftResponses),
				itoa(r.SuccessRate), formatReportTime(r.LastCompletedAt),
			})
		}
	case []dto.DemographicsReportRow:
		data.Title, data.Columns = "Respondent Demographics", demographicsColumns
		for _, r := range rows {
			data.Rows = append(data.Rows, []string{r.Dimension, r.Value, itoa(r.Responses)})
		}
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report rows %T", report.Rows)
	}
	return data, nil
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
