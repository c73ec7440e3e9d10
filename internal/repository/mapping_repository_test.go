package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

func TestMappingRepositoryReplaceSkipsUnmapped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMappingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM co_po_mappings WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO co_po_mappings").
		WithArgs("course-1", "co-1", "po-1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceForCourse(context.Background(), "course-1", []models.CoPoMapping{
		{COID: "co-1", POID: "po-1", Level: 3},
		{COID: "co-2", POID: "po-1", Level: 0},
		{COID: "co-3", POID: "po-1", Level: 4},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMappingRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMappingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + mappingColumns + " FROM co_po_mappings WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows(columns(mappingColumns)).AddRow("course-1", "co-1", "po-2", 2))

	mappings, err := repo.ListByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, 2, mappings[0].Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}
