package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/attainment"
	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type attainmentCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// AttainmentConfig holds the system-wide program attainment defaults.
type AttainmentConfig struct {
	DirectWeight   float64
	IndirectWeight float64
	IndirectScore  float64
	CacheTTL       time.Duration
}

// AttainmentService answers course, student and program attainment queries.
type AttainmentService struct {
	snapshots snapshotLoader
	cache     attainmentCache
	metrics   *MetricsService
	logger    *zap.Logger
	weights   attainment.Weights
	cacheTTL  time.Duration
}

// NewAttainmentService constructs an AttainmentService. Zero weights fall
// back to the 90/10 blend with a 2.5 indirect score.
func NewAttainmentService(snapshots snapshotLoader, cache attainmentCache, metrics *MetricsService, cfg AttainmentConfig, logger *zap.Logger) *AttainmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = (*CacheService)(nil)
	}
	weights := attainment.Weights{Direct: cfg.DirectWeight, Indirect: cfg.IndirectWeight, DefaultIndirect: cfg.IndirectScore}
	if weights.Direct == 0 && weights.Indirect == 0 {
		weights.Direct, weights.Indirect = attainment.DefaultWeights.Direct, attainment.DefaultWeights.Indirect
	}
	if weights.DefaultIndirect == 0 {
		weights.DefaultIndirect = attainment.DefaultWeights.DefaultIndirect
	}
	for _, w := range weights.Warnings() {
		logger.Warn("attainment weights misconfigured", zap.String("warning", w))
	}
	return &AttainmentService{
		snapshots: snapshots,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		weights:   weights,
		cacheTTL:  cfg.CacheTTL,
	}
}

// CourseAttainment computes the CO attainment of a course for the caller's
// scope. The bool result reports a cache hit.
func (s *AttainmentService) CourseAttainment(ctx context.Context, courseID string, query dto.AttainmentQuery, actor *models.JWTClaims) (*attainment.CourseReport, bool, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, false, err
	}
	course, err := courseFor(snap, user, courseID)
	if err != nil {
		return nil, false, err
	}
	sections, err := reportSections(snap, user, course, query.SectionID)
	if err != nil {
		return nil, false, err
	}

	key := courseCacheKey(course.ID, sections)
	var cached attainment.CourseReport
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	report := attainment.BuildCourseReport(snap, course, sections...)
	s.metrics.ObserveAttainment("course", time.Since(start))
	s.logger.Debug("course attainment computed",
		zap.String("course_id", course.ID),
		zap.Strings("sections", sections),
		zap.Int("scope_size", report.ScopeSize),
	)

	_ = s.cache.Set(ctx, key, report, s.cacheTTL)
	return &report, false, nil
}

// StudentAttainment returns one enrolled student's CO percentages.
func (s *AttainmentService) StudentAttainment(ctx context.Context, courseID, studentID string, actor *models.JWTClaims) (*dto.StudentAttainmentResponse, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	course, err := courseFor(snap, user, courseID)
	if err != nil {
		return nil, err
	}
	student, ok := snap.Student(studentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	enrollment, ok := snap.EnrollmentOf(student.ID, course.ID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this course")
	}
	sections, err := reportSections(snap, user, course, "")
	if err != nil {
		return nil, err
	}
	if sections != nil && !inAnySection(enrollment, sections) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student is outside your sections")
	}

	start := time.Now()
	result := attainment.StudentReport(snap, course, student)
	s.metrics.ObserveAttainment("student", time.Since(start))

	resp := &dto.StudentAttainmentResponse{
		CourseID:  course.ID,
		StudentID: student.ID,
		Name:      student.Name,
		SectionID: student.SectionID,
		Target:    course.Target,
	}
	for _, co := range snap.OutcomesOf(course.ID) {
		pct := result.Percentages[co.ID]
		resp.Outcomes = append(resp.Outcomes, dto.StudentOutcome{
			COID:        co.ID,
			Number:      co.Number,
			Percentage:  pct,
			MeetsTarget: pct >= course.Target,
		})
	}
	return resp, nil
}

// Linkage returns the CO-PO articulation matrix of a course.
func (s *AttainmentService) Linkage(ctx context.Context, courseID string, actor *models.JWTClaims) (*attainment.LinkageMatrix, error) {
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	course, err := courseFor(snap, user, courseID)
	if err != nil {
		return nil, err
	}
	matrix := attainment.CourseLinkage(snap, course)
	return &matrix, nil
}

// ProgramAttainment evaluates every PO of a program. Query overrides replace
// the configured weights for this request only.
func (s *AttainmentService) ProgramAttainment(ctx context.Context, programID string, query dto.AttainmentQuery, actor *models.JWTClaims) (*dto.ProgramAttainmentResponse, bool, error) {
	weights, err := s.weightsFor(query)
	if err != nil {
		return nil, false, err
	}
	snap, user, err := s.snapshots.LoadFor(ctx, actor)
	if err != nil {
		return nil, false, err
	}
	if err := requireCapability(user, models.CapViewProgramAttainment); err != nil {
		return nil, false, err
	}
	program, err := programFor(snap, user, programID)
	if err != nil {
		return nil, false, err
	}

	key := programCacheKey(program.ID, weights)
	var cached dto.ProgramAttainmentResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	outcomes := attainment.ProgramAttainment(snap, program.ID, weights)
	s.metrics.ObserveAttainment("program", time.Since(start))

	resp := &dto.ProgramAttainmentResponse{
		ProgramID:      program.ID,
		ProgramName:    program.Name,
		DirectWeight:   weights.Direct,
		IndirectWeight: weights.Indirect,
		IndirectScore:  weights.DefaultIndirect,
		Outcomes:       outcomes,
		Warnings:       weights.Warnings(),
	}
	_ = s.cache.Set(ctx, key, resp, s.cacheTTL)
	return resp, false, nil
}

func (s *AttainmentService) weightsFor(query dto.AttainmentQuery) (attainment.Weights, error) {
	w := s.weights
	if query.DirectWeight != nil {
		w.Direct = *query.DirectWeight
	}
	if query.IndirectWeight != nil {
		w.Indirect = *query.IndirectWeight
	}
	if query.IndirectScore != nil {
		w.DefaultIndirect = *query.IndirectScore
	}
	if w.Direct < 0 || w.Direct > 1 || w.Indirect < 0 || w.Indirect > 1 {
		return w, appErrors.Clone(appErrors.ErrValidation, "weights must be between 0 and 1")
	}
	if w.DefaultIndirect < 0 || w.DefaultIndirect > attainment.MaxLevel {
		return w, appErrors.Clone(appErrors.ErrValidation, "indirect score must be between 0 and 3")
	}
	return w, nil
}

// reportSections decides which sections an attainment view covers. A nil
// result means the whole course. Teachers are limited to the sections they
// own and get the whole course only when they own all of it; other roles may
// pick one section when their role allows it.
func reportSections(snap *models.Snapshot, user models.User, course models.Course, requested string) ([]string, error) {
	if user.Role == models.RoleTeacher {
		owned := attainment.TeacherSections(snap, course, user.ID)
		if requested != "" {
			for _, sec := range owned {
				if sec.ID == requested {
					return []string{requested}, nil
				}
			}
			return nil, appErrors.Clone(appErrors.ErrForbidden, "section is not assigned to you")
		}
		if course.Kind != models.AssignmentPerSection || len(owned) == len(snap.SectionsOf(course.ProgramID, course.BatchID)) {
			return nil, nil
		}
		ids := make([]string, 0, len(owned))
		for _, sec := range owned {
			ids = append(ids, sec.ID)
		}
		return ids, nil
	}

	if requested == "" {
		return nil, nil
	}
	if err := requireCapability(user, models.CapChooseSection); err != nil {
		return nil, err
	}
	for _, sec := range snap.SectionsOf(course.ProgramID, course.BatchID) {
		if sec.ID == requested {
			return []string{requested}, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "section does not belong to this course")
}


func inAnySection(e models.Enrollment, sections []string) bool {
	for _, id := range sections {
		if e.InSection(id) {
			return true
		}
	}
	return false
}
