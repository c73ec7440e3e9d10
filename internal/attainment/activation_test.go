package attainment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

func activationSnapshot() *models.Snapshot {
	snap := endToEndSnapshot()
	snap.Enrollments = []models.Enrollment{enroll("s1", "course-1", "sec-a")}
	snap.Students = append(snap.Students,
		activeStudent("s6", ""),
		activeStudent("s7", "sec-other"),
		models.Student{ID: "s8", SectionID: strPtr("sec-b"), Status: models.StudentStatusInactive},
	)
	snap.Sections = append(snap.Sections, models.Section{ID: "sec-other", ProgramID: "prog-1", BatchID: "batch-2"})
	return snap
}

func TestActivateCourseEnrollsSectionStudents(t *testing.T) {
	snap := activationSnapshot()

	created := ActivateCourse(snap, snap.Courses[0])

	require.Len(t, created, 4)
	for _, e := range created {
		assert.Empty(t, e.ID)
		assert.Equal(t, "course-1", e.CourseID)
		require.NotNil(t, e.SectionID)
	}
	assert.Equal(t, "s2", created[0].StudentID)
	assert.Equal(t, "sec-a", *created[0].SectionID)
	assert.Equal(t, "s5", created[3].StudentID)
	assert.Equal(t, "sec-b", *created[3].SectionID)
}

func TestActivateCourseIsIdempotent(t *testing.T) {
	snap := activationSnapshot()

	first := ActivateCourse(snap, snap.Courses[0])
	snap.Enrollments = append(snap.Enrollments, first...)
	second := ActivateCourse(snap, snap.Courses[0])

	assert.Empty(t, second)

	seen := map[string]int{}
	for _, e := range snap.Enrollments {
		seen[e.StudentID+"/"+e.CourseID]++
	}
	for key, n := range seen {
		assert.Equal(t, 1, n, key)
	}
}

func TestActivateCourseWithoutSections(t *testing.T) {
	snap := activationSnapshot()
	course := snap.Courses[0]
	course.BatchID = "batch-none"

	assert.Empty(t, ActivateCourse(snap, course))
}

func TestActivateCourseDoesNotMutateSnapshot(t *testing.T) {
	snap := activationSnapshot()
	before := len(snap.Enrollments)

	_ = ActivateCourse(snap, snap.Courses[0])

	assert.Len(t, snap.Enrollments, before)
}
