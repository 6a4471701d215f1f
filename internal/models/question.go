package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// QuestionType enumerates supported answer widgets.
type QuestionType string

const (
	QuestionTypeRadio    QuestionType = "radio"
	QuestionTypeCheckbox QuestionType = "checkbox"
	QuestionTypeText     QuestionType = "text"
	QuestionTypeScale    QuestionType = "scale"
)

// RequiresOptions reports whether the type needs an options list.
func (t QuestionType) RequiresOptions() bool {
	return t == QuestionTypeRadio || t == QuestionTypeCheckbox
}

// Question belongs to exactly one survey and is displayed by Order.
type Question struct {
	ID        string          `db:"id" json:"id"`
	SurveyID  string          `db:"survey_id" json:"surveyId"`
	Question  string          `db:"question" json:"question"`
	Type      QuestionType    `db:"type" json:"type"`
	Options   *types.JSONText `db:"options" json:"options,omitempty"`
	Required  bool            `db:"required" json:"required"`
	Order     int             `db:"order" json:"order"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}
