package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/election-survey-api/internal/dto"
)

// ReportRepository runs the aggregation queries behind admin reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const responsesReportQuery = `
SELECT
	a.id AS assignment_id,
	s.title AS survey_title,
	g.name AS region_name,
	g.city,
	g.state,
	a.target_responses,
	a.completed_responses,
	(SELECT COUNT(*) FROM responses r WHERE r.assignment_id = a.id AND r.status = 'draft') AS draft_responses
FROM survey_assignments a
JOIN surveys s ON s.id = a.survey_id
JOIN regions g ON g.id = a.region_id
ORDER BY s.title ASC, g.name ASC`

// Responses returns collection progress per assignment.
func (r *ReportRepository) Responses(ctx context.Context) ([]dto.ResponsesReportRow, error) {
	var rows []dto.ResponsesReportRow
	if err := r.db.SelectContext(ctx, &rows, responsesReportQuery); err != nil {
		return nil, fmt.Errorf("responses report: %w", err)
	}
	return rows, nil
}

const performanceReportQuery = `
SELECT
	u.id AS researcher_id,
	u.name AS researcher_name,
	(SELECT COUNT(*) FROM survey_assignments a WHERE a.researcher_id = u.id) AS assignments,
	COUNT(r.id) FILTER (WHERE r.status = 'completed') AS completed_responses,
	COUNT(r.id) FILTER (WHERE r.status = 'draft') AS draft_responses,
	MAX(r.completed_at) AS last_completed_at
FROM users u
LEFT JOIN responses r ON r.researcher_id = u.id
WHERE u.role = 'researcher'
GROUP BY u.id, u.name
ORDER BY u.name ASC`

// Performance returns per-researcher collection totals.
func (r *ReportRepository) Performance(ctx context.Context) ([]dto.PerformanceReportRow, error) {
	var rows []dto.PerformanceReportRow
	if err := r.db.SelectContext(ctx, &rows, performanceReportQuery); err != nil {
		return nil, fmt.Errorf("performance report: %w", err)
	}
	return rows, nil
}

const demographicsReportQuery = `
SELECT d.dimension, d.value, COUNT(*) AS responses
FROM responses r
CROSS JOIN LATERAL (VALUES
	('age', r.demographics->>'age'),
	('gender', r.demographics->>'gender'),
	('education', r.demographics->>'education'),
	('income', r.demographics->>'income')
) AS d(dimension, value)
WHERE r.status = 'completed' AND d.value IS NOT NULL AND d.value <> ''
GROUP BY d.dimension, d.value
ORDER BY d.dimension ASC, responses DESC, d.value ASC`

// Demographics counts completed responses per demographic bucket.
func (r *ReportRepository) Demographics(ctx context.Context) ([]dto.DemographicsReportRow, error) {
	var rows []dto.DemographicsReportRow
	if err := r.db.SelectContext(ctx, &rows, demographicsReportQuery); err != nil {
		return nil, fmt.Errorf("demographics report: %w", err)
	}
	return rows, nil
}
