package service

import (
	"context"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type assessmentRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Assessment, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	Delete(ctx context.Context, id string) error
}

type markRepository interface {
	ListByAssessment(ctx context.Context, assessmentID string) ([]models.Mark, error)
	BulkUpsert(ctx context.Context, marks []models.Mark) error
}

// fieldError is a validation failure tied to one input field.
type fieldError struct {
	Field   string
	Message string
}

func (e *fieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// MarkTarget is an assessment together with the students that may be marked on it.
type MarkTarget struct {
	Assessment models.Assessment
	enrolled   map[string]struct{}
}

// Check validates one student's scores against the question paper. A nil
// value records the student as absent for that question.
func (t MarkTarget) Check(entry dto.MarkEntry) error {
	if entry.StudentID == "" {
		return &fieldError{Field: "student_id", Message: "is required"}
	}
	if _, ok := t.enrolled[entry.StudentID]; !ok {
		return &fieldError{Field: "student_id", Message: fmt.Sprintf("student %s is not enrolled for this assessment", entry.StudentID)}
	}
	seen := make(map[string]struct{}, len(entry.Scores))
	for _, score := range entry.Scores {
		q, ok := t.Assessment.Questions.Find(score.Question)
		if !ok {
			return &fieldError{Field: score.Question, Message: "unknown question"}
		}
		if _, dup := seen[q.Name]; dup {
			return &fieldError{Field: q.Name, Message: "scored more than once"}
		}
		seen[q.Name] = struct{}{}
		if score.Value == nil {
			continue
		}
		if math.IsNaN(*score.Value) || math.IsInf(*score.Value, 0) {
			return &fieldError{Field: q.Name, Message: "score is not a number"}
		}
		if *score.Value < 0 || *score.Value > q.MaxMarks {
			return &fieldError{Field: q.Name, Message: fmt.Sprintf("score %g is outside 0-%g", *score.Value, q.MaxMarks)}
		}
	}
	return nil
}

// AssessmentService manages question papers and the marks recorded on them.
type AssessmentService struct {
	assessments assessmentRepository
	marks       markRepository
	snapshots   snapshotLoader
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssessmentService constructs an AssessmentService.
func NewAssessmentService(assessments assessmentRepository, marks markRepository, snapshots snapshotLoader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{assessments: assessments, marks: marks, snapshots: snapshots, cache: cache, validator: validate, logger: logger}
}

// List returns the assessments of a visible course.
func (s *AssessmentService) List(ctx context.Context, courseID string, actor *models.JWTClaims) ([]models.Assessment, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := courseFor(snap, user, courseID); err != nil {
		return nil, err
	}
	assessments, err := s.assessments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	return assessments, nil
}

// Create adds an assessment. Question names must be unique and every tagged
// CO must belong to the course. A section-specific assessment must use a
// section of the course that the caller may mark.
func (s *AssessmentService) Create(ctx context.Context, courseID string, req dto.AssessmentRequest, actor *models.JWTClaims) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(user, models.CapUploadMarks); err != nil {
		return nil, err
	}
	course, err := courseFor(snap, user, courseID)
	if err != nil {
		return nil, err
	}
	if err := checkMarkingSection(snap, user, course, req.SectionID); err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(req.Questions))
	for _, q := range req.Questions {
		if _, dup := names[q.Name]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s appears more than once", q.Name))
		}
		names[q.Name] = struct{}{}
		for _, coID := range q.COIDs {
			co, ok := snap.CourseOutcome(coID)
			if !ok || co.CourseID != course.ID {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s is tagged with an outcome of another course", q.Name))
			}
		}
	}

	assessment := &models.Assessment{
		CourseID:  course.ID,
		SectionID: req.SectionID,
		Name:      req.Name,
		Type:      req.Type,
		Questions: models.Questions(req.Questions),
	}
	if err := s.assessments.Create(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return assessment, nil
}

// Delete removes an assessment and its marks.
func (s *AssessmentService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if _, err := s.Target(ctx, id, actor); err != nil {
		return err
	}
	if err := s.assessments.Delete(ctx, id); err != nil {
		return mapRepoError(err, "assessment not found", "failed to delete assessment")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return nil
}

// Marks lists the recorded marks of an assessment.
func (s *AssessmentService) Marks(ctx context.Context, id string, actor *models.JWTClaims) ([]models.Mark, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := assessmentFor(snap, user, id); err != nil {
		return nil, err
	}
	marks, err := s.marks.ListByAssessment(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks")
	}
	return marks, nil
}

// Target resolves an assessment the caller may mark, with its markable students.
func (s *AssessmentService) Target(ctx context.Context, id string, actor *models.JWTClaims) (*MarkTarget, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(user, models.CapUploadMarks); err != nil {
		return nil, err
	}
	assessment, err := assessmentFor(snap, user, id)
	if err != nil {
		return nil, err
	}
	course, _ := snap.Course(assessment.CourseID)
	if err := checkMarkingSection(snap, user, course, assessment.SectionID); err != nil {
		return nil, err
	}

	target := &MarkTarget{Assessment: assessment, enrolled: make(map[string]struct{})}
	for _, e := range snap.Enrollments {
		if e.CourseID != assessment.CourseID {
			continue
		}
		if assessment.SectionID != nil && !e.InSection(*assessment.SectionID) {
			continue
		}
		target.enrolled[e.StudentID] = struct{}{}
	}
	return target, nil
}

// SaveMarks validates and upserts marks. One invalid entry rejects the batch.
func (s *AssessmentService) SaveMarks(ctx context.Context, id string, req dto.SaveMarksRequest, actor *models.JWTClaims) ([]models.Mark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	target, err := s.Target(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(req.Marks))
	for _, entry := range req.Marks {
		if _, dup := seen[entry.StudentID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s appears more than once", entry.StudentID))
		}
		seen[entry.StudentID] = struct{}{}
		if err := target.Check(entry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
	}
	return s.Store(ctx, target, req.Marks)
}

// Store persists entries already checked against target.
func (s *AssessmentService) Store(ctx context.Context, target *MarkTarget, entries []dto.MarkEntry) ([]models.Mark, error) {
	marks := make([]models.Mark, 0, len(entries))
	for _, entry := range entries {
		marks = append(marks, models.Mark{
			StudentID:    entry.StudentID,
			AssessmentID: target.Assessment.ID,
			Scores:       models.Scores(entry.Scores),
		})
	}
	if err := s.marks.BulkUpsert(ctx, marks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save marks")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	s.logger.Info("marks saved", zap.String("assessment_id", target.Assessment.ID), zap.Int("count", len(marks)))
	return marks, nil
}

func assessmentFor(snap *models.Snapshot, user models.User, id string) (models.Assessment, error) {
	for _, a := range snap.Assessments {
		if a.ID != id {
			continue
		}
		if _, err := courseFor(snap, user, a.CourseID); err != nil {
			return models.Assessment{}, err
		}
		return a, nil
	}
	return models.Assessment{}, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
}

// checkMarkingSection verifies a section belongs to the course and, for
// teachers, that they own it.
func checkMarkingSection(snap *models.Snapshot, user models.User, course models.Course, sectionID *string) error {
	if sectionID == nil {
		return nil
	}
	for _, sec := range snap.SectionsOf(course.ProgramID, course.BatchID) {
		if sec.ID != *sectionID {
			continue
		}
		if user.Role == models.RoleTeacher && course.TeacherFor(sec.ID) != user.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "section is not assigned to you")
		}
		return nil
	}
	return appErrors.Clone(appErrors.ErrValidation, "section does not belong to this course")
}
