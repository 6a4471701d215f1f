package dto

import (
	"time"

	"github.com/noah-isme/election-survey-api/internal/models"
)

// CreateSurveyRequest is the payload of POST /surveys.
type CreateSurveyRequest struct {
	Title        string                     `json:"title" validate:"required,max=255"`
	Description  *string                    `json:"description,omitempty"`
	Status       models.SurveyStatus        `json:"status,omitempty" validate:"omitempty,oneof=draft active paused completed"`
	StartDate    *time.Time                 `json:"startDate,omitempty"`
	EndDate      *time.Time                 `json:"endDate,omitempty"`
	Demographics *models.TargetDemographics `json:"demographics,omitempty"`
}

// UpdateSurveyRequest carries partial survey changes.
type UpdateSurveyRequest struct {
	Title        *string                    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description  *string                    `json:"description,omitempty"`
	Status       *models.SurveyStatus       `json:"status,omitempty" validate:"omitempty,oneof=draft active paused completed"`
	StartDate    *time.Time                 `json:"startDate,omitempty"`
	EndDate      *time.Time                 `json:"endDate,omitempty"`
	Demographics *models.TargetDemographics `json:"demographics,omitempty"`
}

// QuestionRequest is the payload for creating or replacing a question.
type QuestionRequest struct {
	Question string              `json:"question" validate:"required"`
	Type     models.QuestionType `json:"type" validate:"required,oneof=radio checkbox text scale"`
	Options  []string            `json:"options,omitempty"`
	Required *bool               `json:"required,omitempty"`
	Order    int                 `json:"order" validate:"gte=0"`
}

// RegionRequest is the payload for creating or replacing a region.
type RegionRequest struct {
	Name        string           `json:"name" validate:"required"`
	Description *string          `json:"description,omitempty"`
	Coordinates *models.GeoPoint `json:"coordinates,omitempty"`
	City        string           `json:"city" validate:"required"`
	State       string           `json:"state" validate:"required"`
}
