package dto

import (
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/election-survey-api/internal/models"
)

// CreateAssignmentRequest is the payload of POST /assignments.
type CreateAssignmentRequest struct {
	SurveyID        string     `json:"surveyId" validate:"required"`
	RegionID        string     `json:"regionId" validate:"required"`
	ResearcherID    *string    `json:"researcherId,omitempty"`
	TargetResponses int        `json:"targetResponses" validate:"gt=0"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
}

// UpdateAssignmentRequest carries the explicit administrative changes to an assignment.
// Unassign and ClearDueDate null the respective columns.
type UpdateAssignmentRequest struct {
	TargetResponses *int                     `json:"targetResponses,omitempty" validate:"omitempty,gt=0"`
	ResearcherID    *string                  `json:"researcherId,omitempty"`
	Unassign        bool                     `json:"unassign,omitempty"`
	DueDate         *time.Time               `json:"dueDate,omitempty"`
	ClearDueDate    bool                     `json:"clearDueDate,omitempty"`
	Status          *models.AssignmentStatus `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed overdue"`
}

// AssignmentDetail is an assignment joined with the labels of its survey, region and researcher.
type AssignmentDetail struct {
	models.Assignment
	SurveyTitle       string          `db:"survey_title" json:"surveyTitle"`
	RegionName        string          `db:"region_name" json:"regionName"`
	RegionCity        string          `db:"region_city" json:"regionCity"`
	RegionCoordinates *types.JSONText `db:"region_coordinates" json:"-"`
	ResearcherName    *string         `db:"researcher_name" json:"researcherName,omitempty"`
}

// AssignmentView adds display-only derived fields to an assignment.
type AssignmentView struct {
	AssignmentDetail
	ProgressPercent int                     `json:"progressPercent"`
	DisplayStatus   models.AssignmentStatus `json:"displayStatus"`
	OverQuota       bool                    `json:"overQuota"`
}

// MapMarker positions an assignment on the field map.
type MapMarker struct {
	AssignmentID       string                  `json:"assignmentId"`
	SurveyTitle        string                  `json:"surveyTitle"`
	RegionID           string                  `json:"regionId"`
	RegionName         string                  `json:"regionName"`
	City               string                  `json:"city"`
	HasLocation        bool                    `json:"hasLocation"`
	Lat                *float64                `json:"lat,omitempty"`
	Lng                *float64                `json:"lng,omitempty"`
	TargetResponses    int                     `json:"targetResponses"`
	CompletedResponses int                     `json:"completedResponses"`
	ProgressPercent    int                     `json:"progressPercent"`
	Status             models.AssignmentStatus `json:"status"`
}
