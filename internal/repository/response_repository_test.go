package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/election-survey-api/internal/models"
)

func newResponse() *models.Response {
	return &models.Response{
		SurveyID:     "s-1",
		AssignmentID: "a-1",
		ResearcherID: "res-1",
		Answers:      types.JSONText(`{"q-1":"Candidato A"}`),
	}
}

func TestResponseRepositoryCreateCompletedIncrements(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO responses").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SET completed_responses = completed_responses + 1")).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"completed_responses"}).AddRow(5))
	mock.ExpectCommit()

	response := newResponse()
	completed, err := repo.CreateCompleted(context.Background(), response)
	require.NoError(t, err)
	assert.Equal(t, 5, completed)
	assert.Equal(t, models.ResponseStatusCompleted, response.Status)
	assert.NotNil(t, response.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryCreateCompletedQuotaReachedRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO responses").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("AND completed_responses < target_responses")).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"completed_responses"}))
	mock.ExpectRollback()

	_, err := repo.CreateCompleted(context.Background(), newResponse())
	assert.ErrorIs(t, err, ErrQuotaReached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryCreateDraftSkipsProgress(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectExec("INSERT INTO responses").
		WillReturnResult(sqlmock.NewResult(1, 1))

	response := newResponse()
	require.NoError(t, repo.CreateDraft(context.Background(), response))
	assert.Equal(t, models.ResponseStatusDraft, response.Status)
	assert.Nil(t, response.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryCompleteDraftTwice(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("AND status = 'draft'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	response := newResponse()
	response.ID = "resp-1"
	_, err := repo.CompleteDraft(context.Background(), response)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "survey_id", "assignment_id", "researcher_id", "demographics", "answers", "location", "status", "created_at", "updated_at", "completed_at"}).
		AddRow("resp-1", "s-1", "a-1", "res-1", nil, []byte(`{"q-1":"A"}`), nil, "completed", now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND researcher_id = $1 AND assignment_id = $2 ORDER BY created_at DESC")).
		WithArgs("res-1", "a-1").
		WillReturnRows(rows)

	responses, err := repo.List(context.Background(), models.ResponseFilter{ResearcherID: "res-1", AssignmentID: "a-1"})
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Nil(t, responses[0].Demographics)
	assert.JSONEq(t, `{"q-1":"A"}`, string(responses[0].Answers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepositoryFindByIDAfterResearcherRemoved(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "survey_id", "assignment_id", "researcher_id", "demographics", "answers", "location", "status", "created_at", "updated_at", "completed_at"}).
		AddRow("resp-9", "s-1", "a-1", "", nil, []byte(`{"q-1":"B"}`), nil, "completed", now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(researcher_id::text, '') AS researcher_id")).
		WithArgs("resp-9").
		WillReturnRows(rows)

	response, err := repo.FindByID(context.Background(), "resp-9")
	require.NoError(t, err)
	assert.Empty(t, response.ResearcherID)
	assert.Equal(t, models.ResponseStatusCompleted, response.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
