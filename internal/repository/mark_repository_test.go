package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

func TestMarkRepositoryBulkUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	v := 18.0
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO marks").
		WithArgs(sqlmock.AnyArg(), "s1", "asm-1", []byte(`[{"question":"Q1","value":18},{"question":"Q2","value":null}]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	marks := []models.Mark{{
		StudentID:    "s1",
		AssessmentID: "asm-1",
		Scores:       models.Scores{{Question: "Q1", Value: &v}, {Question: "Q2"}},
	}}
	require.NoError(t, repo.BulkUpsert(context.Background(), marks))
	assert.NotEmpty(t, marks[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryBulkUpsertRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO marks").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := repo.BulkUpsert(context.Background(), []models.Mark{{StudentID: "ghost", AssessmentID: "asm-1"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryListByAssessment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + markColumns + " FROM marks WHERE assessment_id = $1")).
		WithArgs("asm-1").
		WillReturnRows(sqlmock.NewRows(columns(markColumns)).
			AddRow("m1", "s1", "asm-1", []byte(`[{"question":"Q1","value":7.5}]`), time.Now()))

	marks, err := repo.ListByAssessment(context.Background(), "asm-1")
	require.NoError(t, err)
	require.Len(t, marks, 1)
	v, ok := marks[0].Scores.Lookup("Q1")
	assert.True(t, ok)
	assert.Equal(t, 7.5, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}
