package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type outcomeRepository interface {
	ListCourseOutcomes(ctx context.Context, courseID string) ([]models.CourseOutcome, error)
	UpsertCourseOutcomes(ctx context.Context, outcomes []models.CourseOutcome) error
	UpdateCourseOutcome(ctx context.Context, outcome *models.CourseOutcome) error
	DeleteCourseOutcome(ctx context.Context, id string) error
	ListProgramOutcomes(ctx context.Context, programID string) ([]models.ProgramOutcome, error)
	CreateProgramOutcome(ctx context.Context, outcome *models.ProgramOutcome) error
}

type mappingRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.CoPoMapping, error)
	ReplaceForCourse(ctx context.Context, courseID string, mappings []models.CoPoMapping) error
}

// OutcomeService manages course outcomes, program outcomes and the CO-PO
// mappings between them.
type OutcomeService struct {
	outcomes  outcomeRepository
	mappings  mappingRepository
	snapshots snapshotLoader
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOutcomeService constructs an OutcomeService.
func NewOutcomeService(outcomes outcomeRepository, mappings mappingRepository, snapshots snapshotLoader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *OutcomeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutcomeService{outcomes: outcomes, mappings: mappings, snapshots: snapshots, cache: cache, validator: validate, logger: logger}
}

// ListCourseOutcomes returns the COs of a visible course.
func (s *OutcomeService) ListCourseOutcomes(ctx context.Context, courseID string, actor *models.JWTClaims) ([]models.CourseOutcome, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := courseFor(snap, user, courseID); err != nil {
		return nil, err
	}
	outcomes, err := s.outcomes.ListCourseOutcomes(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course outcomes")
	}
	return outcomes, nil
}

// SaveCourseOutcomes inserts COs, updating the description of numbers the
// course already has. It backs both the form and the spreadsheet upload.
func (s *OutcomeService) SaveCourseOutcomes(ctx context.Context, courseID string, reqs []dto.OutcomeRequest, actor *models.JWTClaims) ([]models.CourseOutcome, error) {
	for _, req := range reqs {
		if err := s.validator.Struct(req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course outcome payload")
		}
	}
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(user, models.CapEditOutcomes); err != nil {
		return nil, err
	}
	if _, err := courseFor(snap, user, courseID); err != nil {
		return nil, err
	}

	existing := make(map[string]string)
	for _, co := range snap.OutcomesOf(courseID) {
		existing[co.Number] = co.ID
	}
	outcomes := make([]models.CourseOutcome, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		if _, dup := seen[req.Number]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("outcome %s appears more than once", req.Number))
		}
		seen[req.Number] = struct{}{}
		outcomes = append(outcomes, models.CourseOutcome{
			ID:          existing[req.Number],
			CourseID:    courseID,
			Number:      req.Number,
			Description: req.Description,
		})
	}
	if err := s.outcomes.UpsertCourseOutcomes(ctx, outcomes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course outcomes")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return outcomes, nil
}

// UpdateCourseOutcome edits one CO.
func (s *OutcomeService) UpdateCourseOutcome(ctx context.Context, id string, req dto.OutcomeRequest, actor *models.JWTClaims) (*models.CourseOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course outcome payload")
	}
	co, err := s.editableOutcome(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	co.Number = req.Number
	co.Description = req.Description
	if err := s.outcomes.UpdateCourseOutcome(ctx, &co); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course already has an outcome with this number")
		}
		return nil, mapRepoError(err, "course outcome not found", "failed to update course outcome")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return &co, nil
}

// DeleteCourseOutcome removes a CO and its mappings.
func (s *OutcomeService) DeleteCourseOutcome(ctx context.Context, id string, actor *models.JWTClaims) error {
	if _, err := s.editableOutcome(ctx, id, actor); err != nil {
		return err
	}
	if err := s.outcomes.DeleteCourseOutcome(ctx, id); err != nil {
		return mapRepoError(err, "course outcome not found", "failed to delete course outcome")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return nil
}

func (s *OutcomeService) editableOutcome(ctx context.Context, id string, actor *models.JWTClaims) (models.CourseOutcome, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return models.CourseOutcome{}, err
	}
	if err := requireCapability(user, models.CapEditOutcomes); err != nil {
		return models.CourseOutcome{}, err
	}
	co, ok := snap.CourseOutcome(id)
	if !ok {
		return models.CourseOutcome{}, appErrors.Clone(appErrors.ErrNotFound, "course outcome not found")
	}
	if _, err := courseFor(snap, user, co.CourseID); err != nil {
		return models.CourseOutcome{}, err
	}
	return co, nil
}

// ListProgramOutcomes returns the POs of a program.
func (s *OutcomeService) ListProgramOutcomes(ctx context.Context, programID string) ([]models.ProgramOutcome, error) {
	outcomes, err := s.outcomes.ListProgramOutcomes(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list program outcomes")
	}
	return outcomes, nil
}

// CreateProgramOutcome adds a PO to a program.
func (s *OutcomeService) CreateProgramOutcome(ctx context.Context, programID string, req dto.OutcomeRequest, actor *models.JWTClaims) (*models.ProgramOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program outcome payload")
	}
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(user, models.CapEditOutcomes); err != nil {
		return nil, err
	}
	if _, ok := snap.Program(programID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
	}
	po := &models.ProgramOutcome{ProgramID: programID, Number: req.Number, Description: req.Description}
	if err := s.outcomes.CreateProgramOutcome(ctx, po); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "program already has an outcome with this number")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program outcome")
	}
	return po, nil
}

// Mappings returns the stored CO-PO mappings of a visible course.
func (s *OutcomeService) Mappings(ctx context.Context, courseID string, actor *models.JWTClaims) ([]models.CoPoMapping, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := courseFor(snap, user, courseID); err != nil {
		return nil, err
	}
	mappings, err := s.mappings.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mappings")
	}
	return mappings, nil
}

// ReplaceMappings overwrites every mapping of a course. Each CO must belong
// to the course and each PO to the course's program; level 0 entries only
// clear the cell.
func (s *OutcomeService) ReplaceMappings(ctx context.Context, courseID string, req dto.ReplaceMappingsRequest, actor *models.JWTClaims) ([]models.CoPoMapping, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mapping payload")
	}
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(user, models.CapEditMappings); err != nil {
		return nil, err
	}
	course, err := courseFor(snap, user, courseID)
	if err != nil {
		return nil, err
	}

	mappings := make([]models.CoPoMapping, 0, len(req.Mappings))
	seen := make(map[[2]string]struct{}, len(req.Mappings))
	for _, entry := range req.Mappings {
		co, ok := snap.CourseOutcome(entry.COID)
		if !ok || co.CourseID != course.ID {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course outcome %s does not belong to the course", entry.COID))
		}
		po, ok := snap.ProgramOutcome(entry.POID)
		if !ok || po.ProgramID != course.ProgramID {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("program outcome %s does not belong to the course program", entry.POID))
		}
		cell := [2]string{entry.COID, entry.POID}
		if _, dup := seen[cell]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("mapping %s/%s appears more than once", co.Number, po.Number))
		}
		seen[cell] = struct{}{}
		if entry.Level == 0 {
			continue
		}
		mappings = append(mappings, models.CoPoMapping{CourseID: course.ID, COID: entry.COID, POID: entry.POID, Level: entry.Level})
	}

	if err := s.mappings.ReplaceForCourse(ctx, course.ID, mappings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save mappings")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return mappings, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
