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

const surveyColumns = `id, title, description, status, start_date, end_date, created_by, demographics, created_at, updated_at`

// SurveyRepository persists surveys.
type SurveyRepository struct {
	db *sqlx.DB
}

// NewSurveyRepository constructs the repository.
func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// List returns every survey, newest first.
func (r *SurveyRepository) List(ctx context.Context) ([]models.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys ORDER BY created_at DESC`
	var surveys []models.Survey
	if err := r.db.SelectContext(ctx, &surveys, query); err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	return surveys, nil
}

// ListByCreator returns surveys created by the user.
func (r *SurveyRepository) ListByCreator(ctx context.Context, userID string) ([]models.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys WHERE created_by = $1 ORDER BY created_at DESC`
	var surveys []models.Survey
	if err := r.db.SelectContext(ctx, &surveys, query, userID); err != nil {
		return nil, fmt.Errorf("list surveys by creator: %w", err)
	}
	return surveys, nil
}

// FindByID returns a survey by id; sql.ErrNoRows passes through.
func (r *SurveyRepository) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys WHERE id = $1`
	var survey models.Survey
	if err := r.db.GetContext(ctx, &survey, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find survey: %w", err)
	}
	return &survey, nil
}

// Create inserts a survey.
func (r *SurveyRepository) Create(ctx context.Context, survey *models.Survey) error {
	if survey.ID == "" {
		survey.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if survey.CreatedAt.IsZero() {
		survey.CreatedAt = now
	}
	survey.UpdatedAt = now
	const query = `INSERT INTO surveys (id, title, description, status, start_date, end_date, created_by, demographics, created_at, updated_at)
		VALUES (:id, :title, :description, :status, :start_date, :end_date, :created_by, :demographics, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, survey); err != nil {
		return fmt.Errorf("create survey: %w", err)
	}
	return nil
}

// Update writes the mutable survey fields. created_by is never touched.
func (r *SurveyRepository) Update(ctx context.Context, survey *models.Survey) error {
	survey.UpdatedAt = time.Now().UTC()
	const query = `UPDATE surveys SET title = :title, description = :description, status = :status, start_date = :start_date,
		end_date = :end_date, demographics = :demographics, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, survey)
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	return expectAffected(result, "update survey")
}

// Delete removes a survey; questions, assignments and responses cascade.
func (r *SurveyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	return expectAffected(result, "delete survey")
}

func expectAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
