package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SurveyStatus enumerates survey lifecycle states.
type SurveyStatus string

const (
	SurveyStatusDraft     SurveyStatus = "draft"
	SurveyStatusActive    SurveyStatus = "active"
	SurveyStatusPaused    SurveyStatus = "paused"
	SurveyStatusCompleted SurveyStatus = "completed"
)

// Survey is an election survey owned by the admin who created it.
type Survey struct {
	ID           string          `db:"id" json:"id"`
	Title        string          `db:"title" json:"title"`
	Description  *string         `db:"description" json:"description,omitempty"`
	Status       SurveyStatus    `db:"status" json:"status"`
	StartDate    *time.Time      `db:"start_date" json:"startDate,omitempty"`
	EndDate      *time.Time      `db:"end_date" json:"endDate,omitempty"`
	CreatedBy    string          `db:"created_by" json:"createdBy"`
	Demographics *types.JSONText `db:"demographics" json:"demographics,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// TargetDemographics is the advisory targeting descriptor attached to a survey.
type TargetDemographics struct {
	AgeRanges       []string `json:"ageRanges,omitempty"`
	Genders         []string `json:"genders,omitempty"`
	EducationLevels []string `json:"educationLevels,omitempty"`
}
