package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/election-survey-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "postgres")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userCols = []string{"id", "username", "email", "password_hash", "role", "name", "created_at"}

func TestFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userCols).
		AddRow("u1", "ana", "ana@example.com", "hash", string(models.RoleResearcher), "Ana", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("ana").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, models.RoleResearcher, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDPassesNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.FindByID(context.Background(), "missing")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListByRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userCols).
		AddRow("u1", "ana", "ana@example.com", "hash", "researcher", "Ana", now).
		AddRow("u2", "bia", "bia@example.com", "hash", "researcher", "Bia", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE role = $1 ORDER BY name ASC")).
		WithArgs(models.RoleResearcher).
		WillReturnRows(rows)

	users, err := repo.ListByRole(context.Background(), models.RoleResearcher)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Username: "ana", Email: "ana@example.com", PasswordHash: "hash", Role: models.RoleResearcher, Name: "Ana"}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
