package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/election-survey-api/internal/models"
)

const questionColumns = `id, survey_id, question, type, options, required, "order", created_at`

// QuestionRepository persists survey questions.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs the repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// ListBySurvey returns the survey's questions in display order.
func (r *QuestionRepository) ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE survey_id = $1 ORDER BY "order" ASC, created_at ASC`
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, surveyID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// FindByID returns a question; sql.ErrNoRows passes through.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	var question models.Question
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find question: %w", err)
	}
	return &question, nil
}

// Create inserts a question.
func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO questions (id, survey_id, question, type, options, required, "order", created_at)
		VALUES (:id, :survey_id, :question, :type, :options, :required, :order, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// Update replaces the editable question fields.
func (r *QuestionRepository) Update(ctx context.Context, question *models.Question) error {
	const query = `UPDATE questions SET question = :question, type = :type, options = :options, required = :required, "order" = :order WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, question)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return expectAffected(result, "update question")
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return expectAffected(result, "delete question")
}
