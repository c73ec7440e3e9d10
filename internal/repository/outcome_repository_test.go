package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

func TestOutcomeRepositoryUpsertCourseOutcomes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOutcomeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO course_outcomes").
		WithArgs(sqlmock.AnyArg(), "course-1", "CO1", "Design algorithms", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO course_outcomes").
		WithArgs(sqlmock.AnyArg(), "course-1", "CO2", "Analyse complexity", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcomes := []models.CourseOutcome{
		{CourseID: "course-1", Number: "CO1", Description: "Design algorithms"},
		{CourseID: "course-1", Number: "CO2", Description: "Analyse complexity"},
	}
	require.NoError(t, repo.UpsertCourseOutcomes(context.Background(), outcomes))
	assert.NotEmpty(t, outcomes[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOutcomeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_outcomes WHERE id = $1")).
		WithArgs("co-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteCourseOutcome(context.Background(), "co-9")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeRepositoryListProgramOutcomes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOutcomeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + programOutcomeColumns + " FROM program_outcomes WHERE program_id = $1")).
		WithArgs("prog-1").
		WillReturnRows(sqlmock.NewRows(columns(programOutcomeColumns)).
			AddRow("po-1", "prog-1", "PO1", "Engineering knowledge", time.Now()))

	outcomes, err := repo.ListProgramOutcomes(context.Background(), "prog-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "PO1", outcomes[0].Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}
