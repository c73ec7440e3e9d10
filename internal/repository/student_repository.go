package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListByProgram returns the students of a program, optionally in one section.
func (r *StudentRepository) ListByProgram(ctx context.Context, programID, sectionID string) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE program_id = $1"
	args := []interface{}{programID}
	if sectionID != "" {
		query += " AND section_id = $2"
		args = append(args, sectionID)
	}
	query += " ORDER BY id"
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// Upsert inserts students or updates name, section and status of existing
// IDs, in one transaction. Student IDs are institution roll numbers and are
// never generated here.
func (r *StudentRepository) Upsert(ctx context.Context, students []models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin students: %w", err)
	}
	const query = `INSERT INTO students (id, program_id, section_id, name, status, created_at)
        VALUES (:id, :program_id, :section_id, :name, :status, :created_at)
        ON CONFLICT (id) DO UPDATE SET section_id = EXCLUDED.section_id, name = EXCLUDED.name, status = EXCLUDED.status`
	now := time.Now().UTC()
	for i := range students {
		if students[i].CreatedAt.IsZero() {
			students[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, students[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert student: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit students: %w", err)
	}
	return nil
}
