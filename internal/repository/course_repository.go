package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// CourseRepository persists courses and their status transitions.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, program_id, batch_id, code, name, semester, status, target, internal_weightage, external_weightage,
        level1, level2, level3, teacher_mode, teacher_id, section_teachers, created_at, updated_at)
        VALUES (:id, :program_id, :batch_id, :code, :name, :semester, :status, :target, :internal_weightage, :external_weightage,
        :level1, :level2, :level3, :teacher_mode, :teacher_id, :section_teachers, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies course settings and the teacher assignment in one
// statement. Status changes go through UpdateStatus.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET code = :code, name = :name, semester = :semester, target = :target,
        internal_weightage = :internal_weightage, external_weightage = :external_weightage,
        level1 = :level1, level2 = :level2, level3 = :level3,
        teacher_mode = :teacher_mode, teacher_id = :teacher_id, section_teachers = :section_teachers,
        updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return expectAffected(res)
}

// UpdateTeachers replaces the teacher assignment of a course.
func (r *CourseRepository) UpdateTeachers(ctx context.Context, id string, assignment models.TeacherAssignment) error {
	const query = `UPDATE courses SET teacher_mode = $2, teacher_id = $3, section_teachers = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, assignment.Kind, assignment.TeacherID, assignment.Sections, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update course teachers: %w", err)
	}
	return expectAffected(res)
}

// UpdateStatus changes the course status and inserts the given enrollments in
// the same transaction. Existing (student, course) pairs are skipped. It
// returns the number of enrollments actually created.
func (r *CourseRepository) UpdateStatus(ctx context.Context, id string, status models.CourseStatus, enrollments []models.Enrollment) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin course status: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC())
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("update course status: %w", err)
	}
	if err := expectAffected(res); err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, err
	}

	created, err := insertEnrollments(ctx, tx, enrollments)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit course status: %w", err)
	}
	return created, nil
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
