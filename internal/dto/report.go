package dto

import "time"

// ReportType enumerates the aggregated report kinds.
type ReportType string

const (
	ReportTypeResponses    ReportType = "responses"
	ReportTypePerformance  ReportType = "performance"
	ReportTypeDemographics ReportType = "demographics"
)

// Valid reports whether the type is supported.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeResponses, ReportTypePerformance, ReportTypeDemographics:
		return true
	}
	return false
}

// ReportFormat enumerates downloadable report encodings.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ResponsesReportRow summarises collection progress for one assignment.
type ResponsesReportRow struct {
	AssignmentID       string `db:"assignment_id" json:"assignmentId"`
	SurveyTitle        string `db:"survey_title" json:"surveyTitle"`
	RegionName         string `db:"region_name" json:"regionName"`
	City               string `db:"city" json:"city"`
	State              string `db:"state" json:"state"`
	TargetResponses    int    `db:"target_responses" json:"targetResponses"`
	CompletedResponses int    `db:"completed_responses" json:"completedResponses"`
	DraftResponses     int    `db:"draft_responses" json:"draftResponses"`
	ProgressPercent    int    `db:"-" json:"progressPercent"`
}

// PerformanceReportRow summarises one researcher's field work.
type PerformanceReportRow struct {
	ResearcherID       string     `db:"researcher_id" json:"researcherId"`
	ResearcherName     string     `db:"researcher_name" json:"researcherName"`
	Assignments        int        `db:"assignments" json:"assignments"`
	CompletedResponses int        `db:"completed_responses" json:"completedResponses"`
	DraftResponses     int        `db:"draft_responses" json:"draftResponses"`
	LastCompletedAt    *time.Time `db:"last_completed_at" json:"lastCompletedAt,omitempty"`
	SuccessRate        int        `db:"-" json:"successRate"`
}

// DemographicsReportRow counts completed responses per demographic bucket.
type DemographicsReportRow struct {
	Dimension string `db:"dimension" json:"dimension"`
	Value     string `db:"value" json:"value"`
	Responses int    `db:"responses" json:"responses"`
}

// Report is the JSON payload of GET /reports/:type.
type Report struct {
	Type        ReportType  `json:"type"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Rows        interface{} `json:"rows"`
}
