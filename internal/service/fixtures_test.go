package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func claimsFor(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID}
}

// serviceSnapshot builds one program batch with two sections. Course crs-1 is
// taught per section: t2 owns sec-a and t1 owns sec-b through the fallback.
// Q1 of a1 (20 marks, CO1) scores give 90, 75, 25 in sec-a and 50, 100 in
// sec-b. The sec-a quiz a2 is untagged so it never moves CO1.
func serviceSnapshot() *models.Snapshot {
	score := func(v float64) models.Scores {
		return models.Scores{{Question: "Q1", Value: floatPtr(v)}}
	}
	enroll := func(id, student, section string) models.Enrollment {
		return models.Enrollment{ID: id, StudentID: student, CourseID: "crs-1", SectionID: strPtr(section)}
	}
	return &models.Snapshot{
		Users: []models.User{
			{ID: "admin", Role: models.RoleAdmin, Name: "Admin"},
			{ID: "uni", Role: models.RoleUniversity, Name: "University"},
			{ID: "dept", Role: models.RoleDepartment, Name: "Dept", CollegeID: strPtr("col-1")},
			{ID: "dept2", Role: models.RoleDepartment, Name: "Other Dept", CollegeID: strPtr("col-2")},
			{ID: "co1", Role: models.RoleCoordinator, Name: "Coordinator", DepartmentID: strPtr("dept")},
			{ID: "t1", Role: models.RoleTeacher, Name: "Teacher One", CoordinatorIDs: []string{"co1"}},
			{ID: "t2", Role: models.RoleTeacher, Name: "Teacher Two"},
			{ID: "t3", Role: models.RoleTeacher, Name: "Teacher Three"},
		},
		Colleges: []models.College{{ID: "col-1", Name: "Engineering"}, {ID: "col-2", Name: "Arts"}},
		Programs: []models.Program{
			{ID: "prog-1", CollegeID: "col-1", Name: "B.Tech CSE", DurationYears: 4},
			{ID: "prog-2", CollegeID: "col-2", Name: "BA", DurationYears: 3},
		},
		Batches: []models.Batch{
			{ID: "batch-1", ProgramID: "prog-1", StartYear: 2022},
			{ID: "batch-2", ProgramID: "prog-2", StartYear: 2022},
		},
		Sections: []models.Section{
			{ID: "sec-a", ProgramID: "prog-1", BatchID: "batch-1", Name: "A"},
			{ID: "sec-b", ProgramID: "prog-1", BatchID: "batch-1", Name: "B"},
		},
		Courses: []models.Course{{
			ID:                "crs-1",
			ProgramID:         "prog-1",
			BatchID:           "batch-1",
			Code:              "CS101",
			Name:              "Programming",
			Semester:          1,
			Status:            models.CourseStatusActive,
			Target:            60,
			InternalWeightage: 40,
			ExternalWeightage: 60,
			AttainmentLevels:  models.AttainmentLevels{Level1: 30, Level2: 50, Level3: 60},
			TeacherAssignment: models.PerSectionTeachers("t1", map[string]string{"sec-a": "t2"}),
		}},
		Students: []models.Student{
			{ID: "s1", ProgramID: "prog-1", SectionID: strPtr("sec-a"), Name: "Asha", Status: models.StudentStatusActive},
			{ID: "s2", ProgramID: "prog-1", SectionID: strPtr("sec-a"), Name: "Bilal", Status: models.StudentStatusActive},
			{ID: "s3", ProgramID: "prog-1", SectionID: strPtr("sec-a"), Name: "Chen", Status: models.StudentStatusActive},
			{ID: "s4", ProgramID: "prog-1", SectionID: strPtr("sec-b"), Name: "Dana", Status: models.StudentStatusActive},
			{ID: "s5", ProgramID: "prog-1", SectionID: strPtr("sec-b"), Name: "Eli", Status: models.StudentStatusActive},
			{ID: "s6", ProgramID: "prog-1", SectionID: strPtr("sec-a"), Name: "Farah", Status: models.StudentStatusInactive},
			{ID: "s7", ProgramID: "prog-1", SectionID: strPtr("sec-b"), Name: "Gus", Status: models.StudentStatusActive},
		},
		Enrollments: []models.Enrollment{
			enroll("e1", "s1", "sec-a"),
			enroll("e2", "s2", "sec-a"),
			enroll("e3", "s3", "sec-a"),
			enroll("e4", "s4", "sec-b"),
			enroll("e5", "s5", "sec-b"),
			enroll("e6", "s6", "sec-a"),
		},
		CourseOutcomes: []models.CourseOutcome{{ID: "co-1", CourseID: "crs-1", Number: "CO1", Description: "Write programs"}},
		ProgramOutcomes: []models.ProgramOutcome{
			{ID: "po-1", ProgramID: "prog-1", Number: "PO1", Description: "Engineering knowledge"},
			{ID: "po-x", ProgramID: "prog-2", Number: "PO1", Description: "Foreign"},
		},
		Mappings: []models.CoPoMapping{{CourseID: "crs-1", COID: "co-1", POID: "po-1", Level: 3}},
		Assessments: []models.Assessment{
			{ID: "a1", CourseID: "crs-1", Name: "Mid term", Type: models.AssessmentInternal, Questions: models.Questions{{Name: "Q1", MaxMarks: 20, COIDs: []string{"co-1"}}}},
			{ID: "a2", CourseID: "crs-1", SectionID: strPtr("sec-a"), Name: "Quiz A", Type: models.AssessmentInternal, Questions: models.Questions{{Name: "Q1", MaxMarks: 10}}},
		},
		Marks: []models.Mark{
			{ID: "m1", StudentID: "s1", AssessmentID: "a1", Scores: score(18)},
			{ID: "m2", StudentID: "s2", AssessmentID: "a1", Scores: score(15)},
			{ID: "m3", StudentID: "s3", AssessmentID: "a1", Scores: score(5)},
			{ID: "m4", StudentID: "s4", AssessmentID: "a1", Scores: score(10)},
			{ID: "m5", StudentID: "s5", AssessmentID: "a1", Scores: score(20)},
		},
	}
}

type stubSnapshotRepo struct {
	snap *models.Snapshot
	err  error
}

func (r *stubSnapshotRepo) Load(ctx context.Context) (*models.Snapshot, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.snap, nil
}

func newTestSnapshots(snap *models.Snapshot) *SnapshotService {
	return NewSnapshotService(&stubSnapshotRepo{snap: snap}, nil, nil)
}

// memoryCache is an in-process stand-in for the Redis-backed CacheService.
type memoryCache struct {
	mu          sync.Mutex
	items       map[string][]byte
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func appCode(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
