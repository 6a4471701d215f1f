package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/election-survey-api/internal/models"
	appErrors "github.com/noah-isme/election-survey-api/pkg/errors"
)

const defaultScaleMax = 10

// validateAnswers checks every answer against the survey's question definitions. Unknown
// question ids and values of the wrong shape are rejected. When the response is being
// completed, every required question must carry a non-empty answer.
func validateAnswers(questions []models.Question, answers map[string]json.RawMessage, completing bool) []appErrors.FieldError {
	var problems []appErrors.FieldError
	if len(answers) == 0 {
		return append(problems, appErrors.FieldError{Field: "answers", Message: "must contain at least one answer"})
	}

	byID := make(map[string]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	keys := make([]string, 0, len(answers))
	for key := range answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		question, ok := byID[key]
		if !ok {
			problems = append(problems, appErrors.FieldError{Field: "answers." + key, Message: "does not match a question of this survey"})
			continue
		}
		if msg := checkAnswer(question, answers[key]); msg != "" {
			problems = append(problems, appErrors.FieldError{Field: "answers." + key, Message: msg})
		}
	}

	if completing {
		for i := range questions {
			q := &questions[i]
			if q.Required && isBlankAnswer(answers[q.ID]) {
				problems = append(problems, appErrors.FieldError{Field: "answers." + q.ID, Message: "is required"})
			}
		}
	}
	return problems
}

func checkAnswer(q *models.Question, raw json.RawMessage) string {
	if isNullJSON(raw) {
		return ""
	}
	options, err := questionOptions(q)
	if err != nil {
		return "question options are malformed"
	}

	switch q.Type {
	case models.QuestionTypeRadio:
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return "must be a single option"
		}
		if value != "" && !contains(options, value) {
			return fmt.Sprintf("%q is not one of the options", value)
		}
	case models.QuestionTypeCheckbox:
		var values []string
		if err := json.Unmarshal(raw, &values); err != nil {
			return "must be a list of options"
		}
		seen := make(map[string]struct{}, len(values))
		for _, v := range values {
			if !contains(options, v) {
				return fmt.Sprintf("%q is not one of the options", v)
			}
			if _, dup := seen[v]; dup {
				return fmt.Sprintf("%q is selected more than once", v)
			}
			seen[v] = struct{}{}
		}
	case models.QuestionTypeText:
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return "must be text"
		}
	case models.QuestionTypeScale:
		var value float64
		if err := json.Unmarshal(raw, &value); err != nil || value != math.Trunc(value) {
			return "must be a whole number"
		}
		upper := defaultScaleMax
		if len(options) > 0 {
			upper = len(options)
		}
		if value < 1 || value > float64(upper) {
			return fmt.Sprintf("must be between 1 and %d", upper)
		}
	default:
		return "question type is not supported"
	}
	return ""
}

func questionOptions(q *models.Question) ([]string, error) {
	if q.Options == nil || len(*q.Options) == 0 {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal(*q.Options, &options); err != nil {
		return nil, err
	}
	return options, nil
}

func isNullJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func isBlankAnswer(raw json.RawMessage) bool {
	if isNullJSON(raw) {
		return true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text) == ""
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return len(list) == 0
	}
	return false
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
