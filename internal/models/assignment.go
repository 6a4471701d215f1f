package models

import (
	"math"
	"time"
)

// AssignmentStatus enumerates the explicit assignment states.
type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusOverdue    AssignmentStatus = "overdue"
)

// Valid reports whether the status is a known value.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusPending, AssignmentStatusInProgress, AssignmentStatusCompleted, AssignmentStatusOverdue:
		return true
	}
	return false
}

// Assignment binds a survey to a region with an optional researcher and a response quota.
type Assignment struct {
	ID                 string           `db:"id" json:"id"`
	SurveyID           string           `db:"survey_id" json:"surveyId"`
	RegionID           string           `db:"region_id" json:"regionId"`
	ResearcherID       *string          `db:"researcher_id" json:"researcherId"`
	TargetResponses    int              `db:"target_responses" json:"targetResponses"`
	CompletedResponses int              `db:"completed_responses" json:"completedResponses"`
	Status             AssignmentStatus `db:"status" json:"status"`
	AssignedAt         time.Time        `db:"assigned_at" json:"assignedAt"`
	DueDate            *time.Time       `db:"due_date" json:"dueDate,omitempty"`
}

// OwnedBy reports whether the assignment is bound to the given researcher.
func (a *Assignment) OwnedBy(researcherID string) bool {
	return a != nil && a.ResearcherID != nil && *a.ResearcherID == researcherID
}

// ProgressPercent returns completed/target as a rounded percentage clamped to [0, 100].
func (a *Assignment) ProgressPercent() int {
	if a == nil || a.TargetResponses <= 0 {
		return 0
	}
	pct := Percent(a.CompletedResponses, a.TargetResponses)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// OverQuota flags the data-quality anomaly of more completions than the quota allows.
func (a *Assignment) OverQuota() bool {
	return a != nil && a.CompletedResponses > a.TargetResponses
}

// QuotaReached reports whether the quota has been met.
func (a *Assignment) QuotaReached() bool {
	return a != nil && a.TargetResponses > 0 && a.CompletedResponses >= a.TargetResponses
}

// DisplayStatus derives the status shown to users. Overdue is computed from the due date
// for any assignment that is not completed, regardless of what is persisted.
func (a *Assignment) DisplayStatus(now time.Time) AssignmentStatus {
	if a == nil {
		return ""
	}
	if a.Status == AssignmentStatusCompleted {
		return AssignmentStatusCompleted
	}
	if a.DueDate != nil && now.After(*a.DueDate) {
		return AssignmentStatusOverdue
	}
	if a.Status == AssignmentStatusOverdue {
		// persisted overdue whose due date moved forward
		if a.CompletedResponses == 0 {
			return AssignmentStatusPending
		}
		return AssignmentStatusInProgress
	}
	return a.Status
}

// Percent computes round(100*part/total) with ties rounded half up; zero totals yield 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(part)*100/float64(total) + 0.5))
}
