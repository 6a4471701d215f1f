package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ResponseStatus distinguishes work-in-progress answers from finalized ones.
type ResponseStatus string

const (
	ResponseStatusDraft     ResponseStatus = "draft"
	ResponseStatusCompleted ResponseStatus = "completed"
)

// Valid reports whether the status is a known value.
func (s ResponseStatus) Valid() bool {
	return s == ResponseStatusDraft || s == ResponseStatusCompleted
}

// Response is a single respondent's answer set collected against an assignment.
// Only completed responses count toward progress and statistics.
type Response struct {
	ID           string          `db:"id" json:"id"`
	SurveyID     string          `db:"survey_id" json:"surveyId"`
	AssignmentID string          `db:"assignment_id" json:"assignmentId"`
	ResearcherID string          `db:"researcher_id" json:"researcherId"`
	Demographics *types.JSONText `db:"demographics" json:"demographics,omitempty"`
	Answers      types.JSONText  `db:"answers" json:"answers"`
	Location     *types.JSONText `db:"location" json:"location,omitempty"`
	Status       ResponseStatus  `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
	CompletedAt  *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
}

// RespondentDemographics is the free-form demographic snapshot taken at submission.
type RespondentDemographics struct {
	Age       string `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Education string `json:"education,omitempty"`
	Income    string `json:"income,omitempty"`
}

// ResponseFilter narrows response listings.
type ResponseFilter struct {
	AssignmentID string
	ResearcherID string
}
