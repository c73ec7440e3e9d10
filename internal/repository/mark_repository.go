package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// MarkRepository persists per-student assessment scores.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository constructs a MarkRepository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// ListByAssessment returns every mark recorded for an assessment.
func (r *MarkRepository) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Mark, error) {
	var marks []models.Mark
	query := "SELECT " + markColumns + " FROM marks WHERE assessment_id = $1 ORDER BY student_id"
	if err := r.db.SelectContext(ctx, &marks, query, assessmentID); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// BulkUpsert writes marks in one transaction, replacing the scores of any
// existing (student, assessment) record.
func (r *MarkRepository) BulkUpsert(ctx context.Context, marks []models.Mark) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin marks: %w", err)
	}
	const query = `INSERT INTO marks (id, student_id, assessment_id, scores, updated_at)
        VALUES (:id, :student_id, :assessment_id, :scores, :updated_at)
        ON CONFLICT (student_id, assessment_id)
        DO UPDATE SET scores = EXCLUDED.scores, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range marks {
		if marks[i].ID == "" {
			marks[i].ID = uuid.NewString()
		}
		marks[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, marks[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert mark: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit marks: %w", err)
	}
	return nil
}
