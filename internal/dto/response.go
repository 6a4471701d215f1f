package dto

import (
	"encoding/json"

	"github.com/noah-isme/election-survey-api/internal/models"
)

// SubmitResponseRequest is the payload of POST /responses. Answers map question ids to values.
type SubmitResponseRequest struct {
	AssignmentID string                         `json:"assignmentId" validate:"required"`
	Demographics *models.RespondentDemographics `json:"demographics,omitempty"`
	Answers      map[string]json.RawMessage     `json:"answers" validate:"required"`
	Location     *models.GeoPoint               `json:"location,omitempty"`
	Status       models.ResponseStatus          `json:"status,omitempty" validate:"omitempty,oneof=draft completed"`
}

// UpdateResponseRequest re-saves a draft, optionally finalizing it.
type UpdateResponseRequest struct {
	Demographics *models.RespondentDemographics `json:"demographics,omitempty"`
	Answers      map[string]json.RawMessage     `json:"answers" validate:"required"`
	Location     *models.GeoPoint               `json:"location,omitempty"`
	Status       models.ResponseStatus          `json:"status,omitempty" validate:"omitempty,oneof=draft completed"`
}
