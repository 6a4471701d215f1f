package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/election-survey-api/internal/models"
)

// ErrQuotaReached is returned when a completion would push an assignment past its quota.
var ErrQuotaReached = errors.New("assignment quota reached")

// Responses outlive removed researchers; their researcher_id reads back empty.
const responseColumns = `id, survey_id, assignment_id, COALESCE(researcher_id::text, '') AS researcher_id, demographics, answers, location, status, created_at, updated_at, completed_at`

const incrementProgressQuery = `UPDATE survey_assignments SET completed_responses = completed_responses + 1
WHERE id = $1 AND completed_responses < target_responses
RETURNING completed_responses`

// ResponseRepository persists field responses and advances assignment progress.
type ResponseRepository struct {
	db *sqlx.DB
}

// NewResponseRepository constructs the repository.
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// FindByID returns a response; sql.ErrNoRows passes through.
func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*models.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE id = $1`
	var response models.Response
	if err := r.db.GetContext(ctx, &response, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find response: %w", err)
	}
	return &response, nil
}

// List returns responses matching the filter, newest first.
func (r *ResponseRepository) List(ctx context.Context, filter models.ResponseFilter) ([]models.Response, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT ` + responseColumns + ` FROM responses WHERE 1=1`)

	var args []interface{}
	if filter.ResearcherID != "" {
		args = append(args, filter.ResearcherID)
		fmt.Fprintf(&query, " AND researcher_id = $%d", len(args))
	}
	if filter.AssignmentID != "" {
		args = append(args, filter.AssignmentID)
		fmt.Fprintf(&query, " AND assignment_id = $%d", len(args))
	}
	query.WriteString(" ORDER BY created_at DESC")

	var responses []models.Response
	if err := r.db.SelectContext(ctx, &responses, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return responses, nil
}

// CreateDraft inserts a draft response without touching assignment progress.
func (r *ResponseRepository) CreateDraft(ctx context.Context, response *models.Response) error {
	prepareResponse(response, models.ResponseStatusDraft)
	return insertResponse(ctx, r.db, response)
}

// CreateCompleted inserts a completed response and increments the assignment counter in
// one transaction. The increment is a single conditional UPDATE so concurrent writers never
// lose updates; ErrQuotaReached rolls the insert back.
func (r *ResponseRepository) CreateCompleted(ctx context.Context, response *models.Response) (completed int, err error) {
	prepareResponse(response, models.ResponseStatusCompleted)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin response transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertResponse(ctx, tx, response); err != nil {
		return 0, err
	}
	if completed, err = incrementProgress(ctx, tx, response.AssignmentID); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit response: %w", err)
	}
	return completed, nil
}

// UpdateDraft re-saves a draft in place. sql.ErrNoRows means the row is gone or no longer a draft.
func (r *ResponseRepository) UpdateDraft(ctx context.Context, response *models.Response) error {
	response.UpdatedAt = time.Now().UTC()
	result, err := r.db.NamedExecContext(ctx, updateDraftQuery, response)
	if err != nil {
		return fmt.Errorf("update draft response: %w", err)
	}
	return expectAffected(result, "update draft response")
}

// CompleteDraft finalizes a draft and increments the assignment counter in one transaction.
// Only the draft to completed transition increments, so repeating it yields sql.ErrNoRows.
func (r *ResponseRepository) CompleteDraft(ctx context.Context, response *models.Response) (completed int, err error) {
	now := time.Now().UTC()
	response.Status = models.ResponseStatusCompleted
	response.UpdatedAt = now
	response.CompletedAt = &now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin response transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.NamedExecContext(ctx, updateDraftQuery, response)
	if err != nil {
		return 0, fmt.Errorf("complete draft response: %w", err)
	}
	if err = expectAffected(result, "complete draft response"); err != nil {
		return 0, err
	}
	if completed, err = incrementProgress(ctx, tx, response.AssignmentID); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit response: %w", err)
	}
	return completed, nil
}

const updateDraftQuery = `UPDATE responses SET demographics = :demographics, answers = :answers, location = :location,
	status = :status, updated_at = :updated_at, completed_at = :completed_at
	WHERE id = :id AND researcher_id = :researcher_id AND status = 'draft'`

func prepareResponse(response *models.Response, status models.ResponseStatus) {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	response.Status = status
	response.CreatedAt = now
	response.UpdatedAt = now
	response.CompletedAt = nil
	if status == models.ResponseStatusCompleted {
		response.CompletedAt = &now
	}
}

func insertResponse(ctx context.Context, db sqlx.ExtContext, response *models.Response) error {
	const query = `INSERT INTO responses (id, survey_id, assignment_id, researcher_id, demographics, answers, location, status, created_at, updated_at, completed_at)
		VALUES (:id, :survey_id, :assignment_id, :researcher_id, :demographics, :answers, :location, :status, :created_at, :updated_at, :completed_at)`
	if _, err := sqlx.NamedExecContext(ctx, db, query, response); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func incrementProgress(ctx context.Context, tx *sqlx.Tx, assignmentID string) (int, error) {
	var completed int
	if err := tx.QueryRowxContext(ctx, incrementProgressQuery, assignmentID).Scan(&completed); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrQuotaReached
		}
		return 0, fmt.Errorf("increment assignment progress: %w", err)
	}
	return completed, nil
}
