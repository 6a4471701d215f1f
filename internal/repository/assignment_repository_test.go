package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/election-survey-api/internal/models"
)

var assignmentDetailCols = []string{
	"id", "survey_id", "region_id", "researcher_id", "target_responses", "completed_responses",
	"status", "assigned_at", "due_date", "survey_title", "region_name", "region_city", "region_coordinates", "researcher_name",
}

func TestAssignmentRepositoryListScopedToResearcher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(assignmentDetailCols).
		AddRow("a-1", "s-1", "r-1", "res-1", 10, 4, "in_progress", now, nil, "Pesquisa", "Centro", "São Paulo", []byte(`{"lat":-23.55,"lng":-46.63}`), "Ana")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND a.researcher_id = $1")).
		WithArgs("res-1").
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), "res-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a-1", items[0].ID)
	require.NotNil(t, items[0].ResearcherID)
	assert.Equal(t, "res-1", *items[0].ResearcherID)
	assert.Equal(t, 4, items[0].CompletedResponses)
	assert.Equal(t, "Centro", items[0].RegionName)
	require.NotNil(t, items[0].RegionCoordinates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows(assignmentDetailCols).
		AddRow("a-1", "s-1", "r-1", nil, 10, 0, "pending", time.Now(), nil, "Pesquisa", "Centro", "São Paulo", nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1\nORDER BY a.assigned_at DESC")).
		WithArgs().
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].ResearcherID)
	assert.Nil(t, items[0].RegionCoordinates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateStartsPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO survey_assignments").
		WithArgs(sqlmock.AnyArg(), "s-1", "r-1", nil, 10, 0, "pending", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.Assignment{SurveyID: "s-1", RegionID: "r-1", TargetResponses: 10, CompletedResponses: 7}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.Equal(t, models.AssignmentStatusPending, assignment.Status)
	assert.Zero(t, assignment.CompletedResponses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateGuardsProgress(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $5 AND completed_responses <= $6")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Assignment{ID: "a-1", TargetResponses: 3, Status: models.AssignmentStatusPending})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
