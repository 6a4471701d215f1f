package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/election-survey-api/internal/dto"
)

// StatsRepository computes dashboard aggregates directly from stored rows.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

const adminStatsQuery = `
SELECT
	(SELECT COUNT(*) FROM surveys WHERE status = 'active') AS active_surveys,
	(SELECT COUNT(*) FROM responses WHERE status = 'completed') AS completed_responses,
	(SELECT COUNT(*) FROM responses) AS total_responses,
	(SELECT COUNT(DISTINCT researcher_id) FROM responses
		WHERE status = 'completed' AND created_at >= $1 AND created_at < $2) AS active_researchers`

// AdminCounts returns organisation-wide counts; "today" is the half-open range [dayStart, dayEnd).
func (r *StatsRepository) AdminCounts(ctx context.Context, dayStart, dayEnd time.Time) (*dto.AdminStatCounts, error) {
	var counts dto.AdminStatCounts
	if err := r.db.GetContext(ctx, &counts, adminStatsQuery, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return &counts, nil
}

const researcherStatsQuery = `
SELECT
	COUNT(*) FILTER (WHERE status = 'completed') AS completed_responses,
	COUNT(*) AS total_responses,
	COUNT(DISTINCT assignment_id) FILTER (WHERE status = 'draft') AS draft_assignments,
	COUNT(*) FILTER (WHERE status = 'completed' AND completed_at >= $2 AND completed_at < $3) AS completed_today
FROM responses
WHERE researcher_id = $1`

// ResearcherCounts returns the counts for a single researcher's own responses.
func (r *StatsRepository) ResearcherCounts(ctx context.Context, researcherID string, dayStart, dayEnd time.Time) (*dto.ResearcherStatCounts, error) {
	var counts dto.ResearcherStatCounts
	if err := r.db.GetContext(ctx, &counts, researcherStatsQuery, researcherID, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("researcher stats: %w", err)
	}
	return &counts, nil
}
