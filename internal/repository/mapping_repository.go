package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// MappingRepository persists CO-PO mapping levels.
type MappingRepository struct {
	db *sqlx.DB
}

// NewMappingRepository constructs a MappingRepository.
func NewMappingRepository(db *sqlx.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// ListByCourse returns the stored mappings of a course.
func (r *MappingRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CoPoMapping, error) {
	var mappings []models.CoPoMapping
	query := "SELECT " + mappingColumns + " FROM co_po_mappings WHERE course_id = $1"
	if err := r.db.SelectContext(ctx, &mappings, query, courseID); err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	return mappings, nil
}

// ReplaceForCourse swaps the course's mapping matrix for the given one.
// Entries with a level outside 1-3 are not stored.
func (r *MappingRepository) ReplaceForCourse(ctx context.Context, courseID string, mappings []models.CoPoMapping) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mappings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM co_po_mappings WHERE course_id = $1`, courseID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear mappings: %w", err)
	}
	const query = `INSERT INTO co_po_mappings (course_id, co_id, po_id, level) VALUES (:course_id, :co_id, :po_id, :level)`
	for _, m := range mappings {
		if m.Level < 1 || m.Level > models.MaxMappingLevel {
			continue
		}
		m.CourseID = courseID
		if _, err := tx.NamedExecContext(ctx, query, m); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert mapping: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mappings: %w", err)
	}
	return nil
}
