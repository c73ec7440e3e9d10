package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

func TestCourseRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WithArgs(sqlmock.AnyArg(), "prog-1", "batch-1", "CS101", "Programming", 1, "FUTURE", 60.0, 40.0, 60.0,
			30.0, 50.0, 60.0, "SINGLE", "t1", []byte("{}"), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{
		ProgramID:         "prog-1",
		BatchID:           "batch-1",
		Code:              "CS101",
		Name:              "Programming",
		Semester:          1,
		Status:            models.CourseStatusFuture,
		Target:            60,
		InternalWeightage: 40,
		ExternalWeightage: 60,
		AttainmentLevels:  models.AttainmentLevels{Level1: 30, Level2: 50, Level3: 60},
		TeacherAssignment: models.SingleTeacher("t1"),
	}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.NotEmpty(t, course.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET code = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Course{ID: "missing"})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateWritesTeachers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("teacher_mode = ?, teacher_id = ?, section_teachers = ?")).
		WithArgs("CS101", "Programming", 1, 60.0, 40.0, 60.0, 30.0, 50.0, 60.0, "SINGLE", "t2", []byte("{}"), sqlmock.AnyArg(), "course-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	course := &models.Course{
		ID:                "course-1",
		Code:              "CS101",
		Name:              "Programming",
		Semester:          1,
		Target:            60,
		InternalWeightage: 40,
		ExternalWeightage: 60,
		AttainmentLevels:  models.AttainmentLevels{Level1: 30, Level2: 50, Level3: 60},
		TeacherAssignment: models.SingleTeacher("t2"),
	}
	require.NoError(t, repo.Update(context.Background(), course))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateStatusWithEnrollments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	section := "sec-a"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("course-1", "ACTIVE", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "s1", "course-1", section, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "s2", "course-1", section, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	created, err := repo.UpdateStatus(context.Background(), "course-1", models.CourseStatusActive, []models.Enrollment{
		{StudentID: "s1", CourseID: "course-1", SectionID: &section},
		{StudentID: "s2", CourseID: "course-1", SectionID: &section},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateStatusRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET status = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), "course-1", models.CourseStatusActive, []models.Enrollment{
		{StudentID: "s1", CourseID: "course-1"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateTeachers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET teacher_mode = $2, teacher_id = $3, section_teachers = $4")).
		WithArgs("course-1", "PER_SECTION", "t1", []byte(`{"sec-a":"t2"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateTeachers(context.Background(), "course-1", models.PerSectionTeachers("t1", map[string]string{"sec-a": "t2"}))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
