package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// EnrollmentRepository reads course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListByCourse returns the enrollments of a course.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	query := "SELECT " + enrollmentColumns + " FROM enrollments WHERE course_id = $1 ORDER BY created_at, id"
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

func insertEnrollments(ctx context.Context, tx *sqlx.Tx, enrollments []models.Enrollment) (int, error) {
	const query = `INSERT INTO enrollments (id, student_id, course_id, section_id, created_at)
        VALUES (:id, :student_id, :course_id, :section_id, :created_at)
        ON CONFLICT (student_id, course_id) DO NOTHING`
	created := 0
	now := time.Now().UTC()
	for i := range enrollments {
		if enrollments[i].ID == "" {
			enrollments[i].ID = uuid.NewString()
		}
		if enrollments[i].CreatedAt.IsZero() {
			enrollments[i].CreatedAt = now
		}
		res, err := tx.NamedExecContext(ctx, query, enrollments[i])
		if err != nil {
			return 0, fmt.Errorf("insert enrollment: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			created += int(n)
		}
	}
	return created, nil
}
