package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type hierarchyRepository interface {
	ListColleges(ctx context.Context) ([]models.College, error)
	FindCollege(ctx context.Context, id string) (*models.College, error)
	CreateCollege(ctx context.Context, college *models.College) error
	ListPrograms(ctx context.Context, collegeID string) ([]models.Program, error)
	FindProgram(ctx context.Context, id string) (*models.Program, error)
	CreateProgram(ctx context.Context, program *models.Program) error
	ListBatches(ctx context.Context, programID string) ([]models.Batch, error)
	FindBatch(ctx context.Context, id string) (*models.Batch, error)
	CreateBatch(ctx context.Context, batch *models.Batch) error
	ListSections(ctx context.Context, programID, batchID string) ([]models.Section, error)
	FindSection(ctx context.Context, id string) (*models.Section, error)
	CreateSection(ctx context.Context, section *models.Section) error
}

// HierarchyService manages colleges, programs, batches and sections.
type HierarchyService struct {
	repo      hierarchyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHierarchyService constructs a HierarchyService.
func NewHierarchyService(repo hierarchyRepository, validate *validator.Validate, logger *zap.Logger) *HierarchyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HierarchyService{repo: repo, validator: validate, logger: logger}
}

// ListColleges returns every college.
func (s *HierarchyService) ListColleges(ctx context.Context) ([]models.College, error) {
	colleges, err := s.repo.ListColleges(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list colleges")
	}
	return colleges, nil
}

// CreateCollege adds a college.
func (s *HierarchyService) CreateCollege(ctx context.Context, req dto.CollegeRequest) (*models.College, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid college payload")
	}
	college := &models.College{Name: req.Name}
	if err := s.repo.CreateCollege(ctx, college); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create college")
	}
	return college, nil
}

// ListPrograms returns the programs of a college.
func (s *HierarchyService) ListPrograms(ctx context.Context, collegeID string) ([]models.Program, error) {
	if _, err := s.findCollege(ctx, collegeID); err != nil {
		return nil, err
	}
	programs, err := s.repo.ListPrograms(ctx, collegeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// CreateProgram adds a program to a college.
func (s *HierarchyService) CreateProgram(ctx context.Context, collegeID string, req dto.ProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	if _, err := s.findCollege(ctx, collegeID); err != nil {
		return nil, err
	}
	program := &models.Program{CollegeID: collegeID, Name: req.Name, DurationYears: req.DurationYears}
	if err := s.repo.CreateProgram(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	return program, nil
}

// ListBatches returns the batches of a program with their year ranges.
func (s *HierarchyService) ListBatches(ctx context.Context, programID string) ([]dto.BatchView, error) {
	program, err := s.FindProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	batches, err := s.repo.ListBatches(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	views := make([]dto.BatchView, 0, len(batches))
	for _, b := range batches {
		views = append(views, dto.BatchView{Batch: b, Years: b.Years(*program)})
	}
	return views, nil
}

// CreateBatch adds a batch to a program.
func (s *HierarchyService) CreateBatch(ctx context.Context, programID string, req dto.BatchRequest) (*dto.BatchView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	program, err := s.FindProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	batch := &models.Batch{ProgramID: programID, StartYear: req.StartYear}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}
	return &dto.BatchView{Batch: *batch, Years: batch.Years(*program)}, nil
}

// ListSections returns the sections of a program, optionally of one batch.
func (s *HierarchyService) ListSections(ctx context.Context, programID, batchID string) ([]models.Section, error) {
	if _, err := s.FindProgram(ctx, programID); err != nil {
		return nil, err
	}
	sections, err := s.repo.ListSections(ctx, programID, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// CreateSection adds a section to a batch of the program.
func (s *HierarchyService) CreateSection(ctx context.Context, programID string, req dto.SectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if _, err := s.FindProgram(ctx, programID); err != nil {
		return nil, err
	}
	batch, err := s.repo.FindBatch(ctx, req.BatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	if batch.ProgramID != programID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch belongs to another program")
	}
	section := &models.Section{ProgramID: programID, BatchID: batch.ID, Name: req.Name}
	if err := s.repo.CreateSection(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return section, nil
}

// FindProgram loads a program or returns a not-found error.
func (s *HierarchyService) FindProgram(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.repo.FindProgram(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

// FindSection loads a section or returns a not-found error.
func (s *HierarchyService) FindSection(ctx context.Context, id string) (*models.Section, error) {
	section, err := s.repo.FindSection(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

func (s *HierarchyService) findCollege(ctx context.Context, id string) (*models.College, error) {
	college, err := s.repo.FindCollege(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load college")
	}
	return college, nil
}
