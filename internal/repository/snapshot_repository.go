package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

const (
	userColumns           = "id, role, name, email, password_hash, coordinator_ids, department_id, college_id, created_at"
	collegeColumns        = "id, name, created_at"
	programColumns        = "id, college_id, name, duration_years, created_at"
	batchColumns          = "id, program_id, start_year, created_at"
	sectionColumns        = "id, program_id, batch_id, name, created_at"
	courseColumns         = "id, program_id, batch_id, code, name, semester, status, target, internal_weightage, external_weightage, level1, level2, level3, teacher_mode, teacher_id, section_teachers, created_at, updated_at"
	studentColumns        = "id, program_id, section_id, name, status, created_at"
	enrollmentColumns     = "id, student_id, course_id, section_id, created_at"
	courseOutcomeColumns  = "id, course_id, number, description, created_at"
	programOutcomeColumns = "id, program_id, number, description, created_at"
	mappingColumns        = "course_id, co_id, po_id, level"
	assessmentColumns     = "id, course_id, section_id, name, type, questions, created_at"
	markColumns           = "id, student_id, assessment_id, scores, updated_at"
)

// SnapshotRepository loads every collection the attainment engine reads.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs a SnapshotRepository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Load reads all collections inside one read-only transaction so the result
// is consistent.
func (r *SnapshotRepository) Load(ctx context.Context) (*models.Snapshot, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	snap := &models.Snapshot{}
	loads := []struct {
		name  string
		dest  interface{}
		query string
	}{
		{"users", &snap.Users, "SELECT " + userColumns + " FROM users ORDER BY name"},
		{"colleges", &snap.Colleges, "SELECT " + collegeColumns + " FROM colleges ORDER BY name"},
		{"programs", &snap.Programs, "SELECT " + programColumns + " FROM programs ORDER BY name"},
		{"batches", &snap.Batches, "SELECT " + batchColumns + " FROM batches ORDER BY start_year"},
		{"sections", &snap.Sections, "SELECT " + sectionColumns + " FROM sections ORDER BY name"},
		{"courses", &snap.Courses, "SELECT " + courseColumns + " FROM courses ORDER BY semester, code"},
		{"students", &snap.Students, "SELECT " + studentColumns + " FROM students ORDER BY id"},
		{"enrollments", &snap.Enrollments, "SELECT " + enrollmentColumns + " FROM enrollments ORDER BY created_at, id"},
		{"course outcomes", &snap.CourseOutcomes, "SELECT " + courseOutcomeColumns + " FROM course_outcomes ORDER BY course_id, number"},
		{"program outcomes", &snap.ProgramOutcomes, "SELECT " + programOutcomeColumns + " FROM program_outcomes ORDER BY program_id, number"},
		{"mappings", &snap.Mappings, "SELECT " + mappingColumns + " FROM co_po_mappings"},
		{"assessments", &snap.Assessments, "SELECT " + assessmentColumns + " FROM assessments ORDER BY created_at, id"},
		{"marks", &snap.Marks, "SELECT " + markColumns + " FROM marks"},
	}
	for _, l := range loads {
		if err := tx.SelectContext(ctx, l.dest, l.query); err != nil {
			return nil, fmt.Errorf("load %s: %w", l.name, err)
		}
	}
	return snap, nil
}
