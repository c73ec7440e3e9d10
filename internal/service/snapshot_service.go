package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/attainment"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/middleware/requestid"
)

type snapshotRepository interface {
	Load(ctx context.Context) (*models.Snapshot, error)
}

// snapshotLoader is what the domain services need from SnapshotService.
type snapshotLoader interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	LoadFor(ctx context.Context, actor *models.JWTClaims) (*models.Snapshot, models.User, error)
}

// SnapshotService loads consistent read-only views of the dataset.
type SnapshotService struct {
	repo    snapshotRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSnapshotService constructs a SnapshotService.
func NewSnapshotService(repo snapshotRepository, metrics *MetricsService, logger *zap.Logger) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{repo: repo, metrics: metrics, logger: logger}
}

// Load reads a fresh snapshot.
func (s *SnapshotService) Load(ctx context.Context) (*models.Snapshot, error) {
	start := time.Now()
	snap, err := s.repo.Load(ctx)
	s.metrics.ObserveSnapshotLoad(time.Since(start))
	if err != nil {
		s.logger.Error("snapshot load failed", zap.String("request_id", requestid.FromContext(ctx)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load data")
	}
	return snap, nil
}

// LoadFor reads a snapshot and resolves the calling user inside it.
func (s *SnapshotService) LoadFor(ctx context.Context, actor *models.JWTClaims) (*models.Snapshot, models.User, error) {
	if actor == nil {
		return nil, models.User{}, appErrors.ErrUnauthorized
	}
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, models.User{}, err
	}
	user, ok := snap.User(actor.UserID)
	if !ok {
		return nil, models.User{}, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
	}
	return snap, user, nil
}

// Visible returns the part of the dataset the caller may browse. Hierarchy
// records are shared; courses and everything hanging off them are limited to
// the caller's visible courses.
func (s *SnapshotService) Visible(ctx context.Context, actor *models.JWTClaims) (*models.Snapshot, error) {
	snap, user, err := s.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	return visibleSnapshot(snap, user), nil
}

func visibleSnapshot(snap *models.Snapshot, user models.User) *models.Snapshot {
	courses := attainment.VisibleCourses(snap, user)
	courseIDs := make(map[string]struct{}, len(courses))
	programIDs := make(map[string]struct{})
	for _, c := range courses {
		courseIDs[c.ID] = struct{}{}
		programIDs[c.ProgramID] = struct{}{}
	}
	inCourse := func(id string) bool {
		_, ok := courseIDs[id]
		return ok
	}

	out := &models.Snapshot{
		Users:    visibleUsers(snap, user),
		Colleges: snap.Colleges,
		Programs: snap.Programs,
		Batches:  snap.Batches,
		Sections: snap.Sections,
		Courses:  courses,
	}
	for _, st := range snap.Students {
		if _, ok := programIDs[st.ProgramID]; ok {
			out.Students = append(out.Students, st)
		}
	}
	for _, e := range snap.Enrollments {
		if inCourse(e.CourseID) {
			out.Enrollments = append(out.Enrollments, e)
		}
	}
	for _, co := range snap.CourseOutcomes {
		if inCourse(co.CourseID) {
			out.CourseOutcomes = append(out.CourseOutcomes, co)
		}
	}
	for _, po := range snap.ProgramOutcomes {
		if _, ok := programIDs[po.ProgramID]; ok {
			out.ProgramOutcomes = append(out.ProgramOutcomes, po)
		}
	}
	for _, m := range snap.Mappings {
		if inCourse(m.CourseID) {
			out.Mappings = append(out.Mappings, m)
		}
	}
	assessmentIDs := make(map[string]struct{})
	for _, a := range snap.Assessments {
		if inCourse(a.CourseID) {
			out.Assessments = append(out.Assessments, a)
			assessmentIDs[a.ID] = struct{}{}
		}
	}
	for _, m := range snap.Marks {
		if _, ok := assessmentIDs[m.AssessmentID]; ok {
			out.Marks = append(out.Marks, m)
		}
	}
	return out
}

func visibleUsers(snap *models.Snapshot, user models.User) []models.User {
	switch user.Role {
	case models.RoleAdmin, models.RoleUniversity, models.RoleDepartment:
		return snap.Users
	case models.RoleCoordinator:
		var out []models.User
		for _, u := range snap.Users {
			if u.ID == user.ID || (u.Role == models.RoleTeacher && u.ReportsTo(user.ID)) {
				out = append(out, u)
			}
		}
		return out
	}
	return []models.User{user}
}

// courseFor looks up a course and checks that the user may see it.
func courseFor(snap *models.Snapshot, user models.User, courseID string) (models.Course, error) {
	course, ok := snap.Course(courseID)
	if !ok {
		return models.Course{}, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if !attainment.CanSeeCourse(snap, user, courseID) {
		return models.Course{}, appErrors.Clone(appErrors.ErrForbidden, "course is not visible to this user")
	}
	return course, nil
}

// programFor looks up a program and checks that the user may work on it.
// Department users are limited to their college, coordinators and teachers
// to programs with at least one visible course.
func programFor(snap *models.Snapshot, user models.User, programID string) (models.Program, error) {
	program, ok := snap.Program(programID)
	if !ok {
		return models.Program{}, appErrors.Clone(appErrors.ErrNotFound, "program not found")
	}
	switch user.Role {
	case models.RoleAdmin, models.RoleUniversity:
		return program, nil
	case models.RoleDepartment:
		if user.CollegeID == nil || *user.CollegeID != program.CollegeID {
			return models.Program{}, appErrors.Clone(appErrors.ErrForbidden, "program belongs to another college")
		}
		return program, nil
	}
	for _, c := range attainment.VisibleCourses(snap, user) {
		if c.ProgramID == program.ID {
			return program, nil
		}
	}
	return models.Program{}, appErrors.Clone(appErrors.ErrForbidden, "program is not visible to this user")
}

func requireCapability(user models.User, capability models.Capability) error {
	if !user.Role.Can(capability) {
		return appErrors.Clone(appErrors.ErrForbidden, "role lacks capability "+string(capability))
	}
	return nil
}
