package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/election-survey-api/internal/dto"
	"github.com/noah-isme/election-survey-api/internal/models"
)

const assignmentColumns = `id, survey_id, region_id, researcher_id, target_responses, completed_responses, status, assigned_at, due_date`

const assignmentDetailSelect = `
SELECT
	a.id, a.survey_id, a.region_id, a.researcher_id, a.target_responses, a.completed_responses,
	a.status, a.assigned_at, a.due_date,
	s.title AS survey_title,
	g.name AS region_name,
	g.city AS region_city,
	g.coordinates AS region_coordinates,
	u.name AS researcher_name
FROM survey_assignments a
JOIN surveys s ON s.id = a.survey_id
JOIN regions g ON g.id = a.region_id
LEFT JOIN users u ON u.id = a.researcher_id`

// AssignmentRepository persists survey assignments and owns their quota columns.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignment details. A non-empty researcherID restricts rows to that researcher.
func (r *AssignmentRepository) List(ctx context.Context, researcherID string) ([]dto.AssignmentDetail, error) {
	query := strings.Builder{}
	query.WriteString(assignmentDetailSelect)
	query.WriteString("\nWHERE 1=1")

	var args []interface{}
	if researcherID != "" {
		args = append(args, researcherID)
		fmt.Fprintf(&query, " AND a.researcher_id = $%d", len(args))
	}
	query.WriteString("\nORDER BY a.assigned_at DESC, g.name ASC")

	var items []dto.AssignmentDetail
	if err := r.db.SelectContext(ctx, &items, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return items, nil
}

// FindDetail returns one assignment with its labels; sql.ErrNoRows passes through.
func (r *AssignmentRepository) FindDetail(ctx context.Context, id string) (*dto.AssignmentDetail, error) {
	query := assignmentDetailSelect + "\nWHERE a.id = $1"
	var item dto.AssignmentDetail
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment detail: %w", err)
	}
	return &item, nil
}

// FindByID returns the bare assignment row; sql.ErrNoRows passes through.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM survey_assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// Create inserts an assignment with zero progress.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	if assignment.Status == "" {
		assignment.Status = models.AssignmentStatusPending
	}
	assignment.CompletedResponses = 0
	const query = `INSERT INTO survey_assignments (id, survey_id, region_id, researcher_id, target_responses, completed_responses, status, assigned_at, due_date)
		VALUES (:id, :survey_id, :region_id, :researcher_id, :target_responses, :completed_responses, :status, :assigned_at, :due_date)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update writes the administrative fields. The row is only touched while the new quota
// still covers the recorded progress; sql.ErrNoRows signals a missing row or a lost race.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	const query = `UPDATE survey_assignments SET target_responses = :target_responses, researcher_id = :researcher_id,
		due_date = :due_date, status = :status WHERE id = :id AND completed_responses <= :target_responses`
	result, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return expectAffected(result, "update assignment")
}
