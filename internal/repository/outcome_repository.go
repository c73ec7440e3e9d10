package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// OutcomeRepository persists course and program outcomes.
type OutcomeRepository struct {
	db *sqlx.DB
}

// NewOutcomeRepository constructs an OutcomeRepository.
func NewOutcomeRepository(db *sqlx.DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// ListCourseOutcomes returns the COs of a course ordered by number.
func (r *OutcomeRepository) ListCourseOutcomes(ctx context.Context, courseID string) ([]models.CourseOutcome, error) {
	var outcomes []models.CourseOutcome
	query := "SELECT " + courseOutcomeColumns + " FROM course_outcomes WHERE course_id = $1 ORDER BY number"
	if err := r.db.SelectContext(ctx, &outcomes, query, courseID); err != nil {
		return nil, fmt.Errorf("list course outcomes: %w", err)
	}
	return outcomes, nil
}

// UpsertCourseOutcomes inserts COs or updates the description of an existing
// number within the same course, in one transaction.
func (r *OutcomeRepository) UpsertCourseOutcomes(ctx context.Context, outcomes []models.CourseOutcome) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin course outcomes: %w", err)
	}
	const query = `INSERT INTO course_outcomes (id, course_id, number, description, created_at)
        VALUES (:id, :course_id, :number, :description, :created_at)
        ON CONFLICT (course_id, number) DO UPDATE SET description = EXCLUDED.description`
	now := time.Now().UTC()
	for i := range outcomes {
		if outcomes[i].ID == "" {
			outcomes[i].ID = uuid.NewString()
		}
		outcomes[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, outcomes[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert course outcome: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit course outcomes: %w", err)
	}
	return nil
}

// UpdateCourseOutcome changes a CO's number and description.
func (r *OutcomeRepository) UpdateCourseOutcome(ctx context.Context, outcome *models.CourseOutcome) error {
	const query = `UPDATE course_outcomes SET number = :number, description = :description WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, outcome)
	if err != nil {
		return fmt.Errorf("update course outcome: %w", err)
	}
	return expectAffected(res)
}

// DeleteCourseOutcome removes a CO; its mappings cascade.
func (r *OutcomeRepository) DeleteCourseOutcome(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM course_outcomes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course outcome: %w", err)
	}
	return expectAffected(res)
}

// ListProgramOutcomes returns the POs of a program ordered by number.
func (r *OutcomeRepository) ListProgramOutcomes(ctx context.Context, programID string) ([]models.ProgramOutcome, error) {
	var outcomes []models.ProgramOutcome
	query := "SELECT " + programOutcomeColumns + " FROM program_outcomes WHERE program_id = $1 ORDER BY number"
	if err := r.db.SelectContext(ctx, &outcomes, query, programID); err != nil {
		return nil, fmt.Errorf("list program outcomes: %w", err)
	}
	return outcomes, nil
}

// CreateProgramOutcome inserts a PO.
func (r *OutcomeRepository) CreateProgramOutcome(ctx context.Context, outcome *models.ProgramOutcome) error {
	if outcome.ID == "" {
		outcome.ID = uuid.NewString()
	}
	outcome.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO program_outcomes (id, program_id, number, description, created_at)
        VALUES (:id, :program_id, :number, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, outcome); err != nil {
		return fmt.Errorf("create program outcome: %w", err)
	}
	return nil
}
