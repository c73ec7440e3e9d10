package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/attainment"
	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	UpdateTeachers(ctx context.Context, id string, assignment models.TeacherAssignment) error
	UpdateStatus(ctx context.Context, id string, status models.CourseStatus, enrollments []models.Enrollment) (int, error)
}

type enrollmentRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
}

// CourseService manages courses, their teachers and their lifecycle.
type CourseService struct {
	repo        courseRepository
	enrollments enrollmentRepository
	snapshots   snapshotLoader
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, enrollments enrollmentRepository, snapshots snapshotLoader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, enrollments: enrollments, snapshots: snapshots, cache: cache, validator: validate, logger: logger}
}

// List returns the caller's visible courses narrowed by filter.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter, actor *models.JWTClaims) ([]models.Course, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	out := make([]models.Course, 0)
	for _, c := range attainment.VisibleCourses(snap, user) {
		if filter.ProgramID != "" && c.ProgramID != filter.ProgramID {
			continue
		}
		if filter.BatchID != "" && c.BatchID != filter.BatchID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Get returns a visible course with its configuration warnings.
func (s *CourseService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.CourseDetail, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	course, err := courseFor(snap, user, id)
	if err != nil {
		return nil, err
	}
	return &dto.CourseDetail{Course: course, Warnings: course.Warnings()}, nil
}

// Create adds a course in FUTURE status.
func (s *CourseService) Create(ctx context.Context, req dto.CourseRequest, actor *models.JWTClaims) (*dto.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(user, models.CapEditCourses); err != nil {
		return nil, err
	}
	if err := checkProgramBatch(snap, user, req.ProgramID, req.BatchID); err != nil {
		return nil, err
	}

	course := &models.Course{
		ProgramID:         req.ProgramID,
		BatchID:           req.BatchID,
		Code:              req.Code,
		Name:              req.Name,
		Semester:          req.Semester,
		Status:            models.CourseStatusFuture,
		Target:            req.Target,
		InternalWeightage: req.InternalWeightage,
		ExternalWeightage: req.ExternalWeightage,
		AttainmentLevels:  req.AttainmentLevels,
	}
	if req.Teachers != nil {
		assignment, err := checkAssignment(snap, *course, *req.Teachers)
		if err != nil {
			return nil, err
		}
		course.TeacherAssignment = assignment
	} else {
		course.TeacherAssignment = models.SingleTeacher("")
	}

	if err := s.repo.Create(ctx, course); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists in this batch")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	warnings := course.Warnings()
	if len(warnings) > 0 {
		s.logger.Info("course saved with warnings", zap.String("course_id", course.ID), zap.Strings("warnings", warnings))
	}
	return &dto.CourseDetail{Course: *course, Warnings: warnings}, nil
}

// Update edits course settings. Program and batch are fixed once created.
func (s *CourseService) Update(ctx context.Context, id string, req dto.CourseRequest, actor *models.JWTClaims) (*dto.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(user, models.CapEditCourses); err != nil {
		return nil, err
	}
	course, err := courseFor(snap, user, id)
	if err != nil {
		return nil, err
	}
	if req.ProgramID != course.ProgramID || req.BatchID != course.BatchID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "program and batch of a course cannot change")
	}

	if req.Teachers != nil {
		assignment, err := checkAssignment(snap, course, *req.Teachers)
		if err != nil {
			return nil, err
		}
		course.TeacherAssignment = assignment
	}

	course.Code = req.Code
	course.Name = req.Name
	course.Semester = req.Semester
	course.Target = req.Target
	course.InternalWeightage = req.InternalWeightage
	course.ExternalWeightage = req.ExternalWeightage
	course.AttainmentLevels = req.AttainmentLevels
	if err := s.repo.Update(ctx, &course); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists in this batch")
		}
		return nil, mapRepoError(err, "course not found", "failed to update course")
	}
	invalidateAttainment(ctx, s.cache, s.logger)

	warnings := course.Warnings()
	if len(warnings) > 0 {
		s.logger.Info("course saved with warnings", zap.String("course_id", course.ID), zap.Strings("warnings", warnings))
	}
	return &dto.CourseDetail{Course: course, Warnings: warnings}, nil
}

// UpdateTeachers replaces who teaches the course.
func (s *CourseService) UpdateTeachers(ctx context.Context, id string, req dto.TeacherAssignmentRequest, actor *models.JWTClaims) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher assignment")
	}
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(user, models.CapEditCourses); err != nil {
		return nil, err
	}
	course, err := courseFor(snap, user, id)
	if err != nil {
		return nil, err
	}
	assignment, err := checkAssignment(snap, course, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTeachers(ctx, course.ID, assignment); err != nil {
		return nil, mapRepoError(err, "course not found", "failed to update course teachers")
	}
	course.TeacherAssignment = assignment
	invalidateAttainment(ctx, s.cache, s.logger)
	return &course, nil
}

// UpdateStatus moves the course through FUTURE, ACTIVE and COMPLETED.
// Setting ACTIVE enrolls every active student placed in one of the course's
// sections who is not yet enrolled; repeating it only picks up newcomers.
func (s *CourseService) UpdateStatus(ctx context.Context, id string, req dto.CourseStatusRequest, actor *models.JWTClaims) (*dto.CourseStatusResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status")
	}
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(user, models.CapEditCourses); err != nil {
		return nil, err
	}
	course, err := courseFor(snap, user, id)
	if err != nil {
		return nil, err
	}

	var enrollments []models.Enrollment
	if req.Status == models.CourseStatusActive {
		enrollments = attainment.ActivateCourse(snap, course)
	}
	created, err := s.repo.UpdateStatus(ctx, course.ID, req.Status, enrollments)
	if err != nil {
		return nil, mapRepoError(err, "course not found", "failed to update course status")
	}
	s.logger.Info("course status changed",
		zap.String("course_id", course.ID),
		zap.String("from", string(course.Status)),
		zap.String("to", string(req.Status)),
		zap.Int("enrollments_created", created),
	)
	course.Status = req.Status
	invalidateAttainment(ctx, s.cache, s.logger)
	return &dto.CourseStatusResponse{Course: course, EnrollmentsCreated: created}, nil
}

// Sections lists the sections the caller works with in this course: the
// owned ones for teachers, all of the course's program batch otherwise.
func (s *CourseService) Sections(ctx context.Context, id string, actor *models.JWTClaims) ([]models.Section, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	course, err := courseFor(snap, user, id)
	if err != nil {
		return nil, err
	}
	var sections []models.Section
	if user.Role == models.RoleTeacher {
		sections = attainment.TeacherSections(snap, course, user.ID)
	} else {
		sections = snap.SectionsOf(course.ProgramID, course.BatchID)
	}
	if sections == nil {
		sections = []models.Section{}
	}
	return sections, nil
}

// Enrollments lists who is enrolled in a visible course.
func (s *CourseService) Enrollments(ctx context.Context, id string, actor *models.JWTClaims) ([]models.Enrollment, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := courseFor(snap, user, id); err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListByCourse(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// checkProgramBatch verifies that the batch belongs to the program and that a
// department head stays inside its college.
func checkProgramBatch(snap *models.Snapshot, user models.User, programID, batchID string) error {
	program, ok := snap.Program(programID)
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "program not found")
	}
	if user.Role == models.RoleDepartment && (user.CollegeID == nil || *user.CollegeID != program.CollegeID) {
		return appErrors.Clone(appErrors.ErrForbidden, "program belongs to another college")
	}
	for _, b := range snap.Batches {
		if b.ID == batchID {
			if b.ProgramID != programID {
				return appErrors.Clone(appErrors.ErrValidation, "batch belongs to another program")
			}
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, "batch not found")
}

// checkAssignment validates a teacher assignment against the course's sections
// and the teacher accounts.
func checkAssignment(snap *models.Snapshot, course models.Course, req dto.TeacherAssignmentRequest) (models.TeacherAssignment, error) {
	isTeacher := func(id string) bool {
		u, ok := snap.User(id)
		return ok && u.Role == models.RoleTeacher
	}
	if req.Kind == models.AssignmentSingle {
		if req.TeacherID == "" {
			return models.TeacherAssignment{}, appErrors.Clone(appErrors.ErrValidation, "teacher_id is required for a single teacher")
		}
	}
	if req.TeacherID != "" && !isTeacher(req.TeacherID) {
		return models.TeacherAssignment{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("user %s is not a teacher", req.TeacherID))
	}
	if req.Kind == models.AssignmentPerSection {
		valid := make(map[string]struct{})
		for _, sec := range snap.SectionsOf(course.ProgramID, course.BatchID) {
			valid[sec.ID] = struct{}{}
		}
		for sectionID, teacherID := range req.Sections {
			if _, ok := valid[sectionID]; !ok {
				return models.TeacherAssignment{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("section %s does not belong to the course batch", sectionID))
			}
			if !isTeacher(teacherID) {
				return models.TeacherAssignment{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("user %s is not a teacher", teacherID))
			}
		}
	}
	return req.Assignment(), nil
}

// mapRepoError turns sql.ErrNoRows into a not-found error and anything else
// into an internal one.
func mapRepoError(err error, notFound, failed string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, failed)
}
