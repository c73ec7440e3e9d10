package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// HierarchyRepository persists colleges, programs, batches and sections.
type HierarchyRepository struct {
	db *sqlx.DB
}

// NewHierarchyRepository constructs a HierarchyRepository.
func NewHierarchyRepository(db *sqlx.DB) *HierarchyRepository {
	return &HierarchyRepository{db: db}
}

// ListColleges returns every college.
func (r *HierarchyRepository) ListColleges(ctx context.Context) ([]models.College, error) {
	var colleges []models.College
	if err := r.db.SelectContext(ctx, &colleges, "SELECT "+collegeColumns+" FROM colleges ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	return colleges, nil
}

// FindCollege fetches a college by ID.
func (r *HierarchyRepository) FindCollege(ctx context.Context, id string) (*models.College, error) {
	var college models.College
	if err := r.db.GetContext(ctx, &college, "SELECT "+collegeColumns+" FROM colleges WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &college, nil
}

// CreateCollege inserts a college.
func (r *HierarchyRepository) CreateCollege(ctx context.Context, college *models.College) error {
	if college.ID == "" {
		college.ID = uuid.NewString()
	}
	college.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO colleges (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, college); err != nil {
		return fmt.Errorf("create college: %w", err)
	}
	return nil
}

// ListPrograms returns the programs of a college.
func (r *HierarchyRepository) ListPrograms(ctx context.Context, collegeID string) ([]models.Program, error) {
	var programs []models.Program
	query := "SELECT " + programColumns + " FROM programs WHERE college_id = $1 ORDER BY name"
	if err := r.db.SelectContext(ctx, &programs, query, collegeID); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindProgram fetches a program by ID.
func (r *HierarchyRepository) FindProgram(ctx context.Context, id string) (*models.Program, error) {
	var program models.Program
	if err := r.db.GetContext(ctx, &program, "SELECT "+programColumns+" FROM programs WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &program, nil
}

// CreateProgram inserts a program.
func (r *HierarchyRepository) CreateProgram(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	program.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO programs (id, college_id, name, duration_years, created_at)
        VALUES (:id, :college_id, :name, :duration_years, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// ListBatches returns the batches of a program, oldest first.
func (r *HierarchyRepository) ListBatches(ctx context.Context, programID string) ([]models.Batch, error) {
	var batches []models.Batch
	query := "SELECT " + batchColumns + " FROM batches WHERE program_id = $1 ORDER BY start_year"
	if err := r.db.SelectContext(ctx, &batches, query, programID); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// FindBatch fetches a batch by ID.
func (r *HierarchyRepository) FindBatch(ctx context.Context, id string) (*models.Batch, error) {
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, "SELECT "+batchColumns+" FROM batches WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &batch, nil
}

// CreateBatch inserts a batch.
func (r *HierarchyRepository) CreateBatch(ctx context.Context, batch *models.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	batch.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO batches (id, program_id, start_year, created_at)
        VALUES (:id, :program_id, :start_year, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// ListSections returns the sections of a program, optionally for one batch.
func (r *HierarchyRepository) ListSections(ctx context.Context, programID, batchID string) ([]models.Section, error) {
	query := "SELECT " + sectionColumns + " FROM sections WHERE program_id = $1"
	args := []interface{}{programID}
	if batchID != "" {
		query += " AND batch_id = $2"
		args = append(args, batchID)
	}
	query += " ORDER BY name"
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindSection fetches a section by ID.
func (r *HierarchyRepository) FindSection(ctx context.Context, id string) (*models.Section, error) {
	var section models.Section
	if err := r.db.GetContext(ctx, &section, "SELECT "+sectionColumns+" FROM sections WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &section, nil
}

// CreateSection inserts a section.
func (r *HierarchyRepository) CreateSection(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	section.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO sections (id, program_id, batch_id, name, created_at)
        VALUES (:id, :program_id, :batch_id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}
