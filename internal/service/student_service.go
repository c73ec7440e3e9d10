package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type studentRepository interface {
	ListByProgram(ctx context.Context, programID, sectionID string) ([]models.Student, error)
	Upsert(ctx context.Context, students []models.Student) error
}

// StudentService registers students of a program.
type StudentService struct {
	repo      studentRepository
	snapshots snapshotLoader
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, snapshots snapshotLoader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, snapshots: snapshots, cache: cache, validator: validate, logger: logger}
}

// List returns the students of a program, optionally of one section.
func (s *StudentService) List(ctx context.Context, programID, sectionID string, actor *models.JWTClaims) ([]models.Student, error) {
	if _, _, err := s.program(ctx, programID, actor); err != nil {
		return nil, err
	}
	students, err := s.repo.ListByProgram(ctx, programID, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Save inserts students or updates existing IDs. Every section must belong
// to the program; a missing status means ACTIVE.
func (s *StudentService) Save(ctx context.Context, programID string, reqs []dto.StudentRequest, actor *models.JWTClaims) ([]models.Student, error) {
	for _, req := range reqs {
		if err := s.validator.Struct(req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
		}
	}
	sections, err := s.Sections(ctx, programID, actor)
	if err != nil {
		return nil, err
	}

	students := make([]models.Student, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		if _, dup := seen[req.ID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s appears more than once", req.ID))
		}
		seen[req.ID] = struct{}{}
		if req.SectionID != nil {
			if _, ok := sections[*req.SectionID]; !ok {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("section %s does not belong to the program", *req.SectionID))
			}
		}
		students = append(students, newStudent(programID, req))
	}

	if err := s.repo.Upsert(ctx, students); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save students")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	s.logger.Info("students saved", zap.String("program_id", programID), zap.Int("count", len(students)))
	return students, nil
}

// Sections returns the program's sections keyed by ID.
func (s *StudentService) Sections(ctx context.Context, programID string, actor *models.JWTClaims) (map[string]models.Section, error) {
	snap, program, err := s.program(ctx, programID, actor)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Section)
	for _, sec := range snap.Sections {
		if sec.ProgramID == program.ID {
			out[sec.ID] = sec
		}
	}
	return out, nil
}

func (s *StudentService) program(ctx context.Context, id string, actor *models.JWTClaims) (*models.Snapshot, models.Program, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, models.Program{}, err
	}
	if err := requireCapability(user, models.CapManageStudents); err != nil {
		return nil, models.Program{}, err
	}
	program, err := programFor(snap, user, id)
	if err != nil {
		return nil, models.Program{}, err
	}
	return snap, program, nil
}

func newStudent(programID string, req dto.StudentRequest) models.Student {
	status := req.Status
	if status == "" {
		status = models.StudentStatusActive
	}
	return models.Student{
		ID:        req.ID,
		ProgramID: programID,
		SectionID: req.SectionID,
		Name:      req.Name,
		Status:    status,
	}
}
