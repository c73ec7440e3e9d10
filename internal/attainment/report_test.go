package attainment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

func TestBuildCourseReportOverall(t *testing.T) {
	snap := endToEndSnapshot()
	snap.CourseOutcomes = append(snap.CourseOutcomes, models.CourseOutcome{ID: "co-2", CourseID: "course-1", Number: "CO2"})

	report := BuildCourseReport(snap, snap.Courses[0])

	assert.Equal(t, 5, report.ScopeSize)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "CO1", report.Outcomes[0].Number)
	assert.Equal(t, 1, report.Outcomes[0].Questions)
	assert.Equal(t, 20.0, report.Outcomes[0].MaxMarks)
	assert.Equal(t, 3, report.Outcomes[0].Level)
	assert.InDelta(t, 68.0, report.Outcomes[0].Average, 1e-9)
	assert.Equal(t, 0, report.Outcomes[1].Questions)
	assert.Equal(t, 0, report.Outcomes[1].Level)
	require.Len(t, report.Students, 5)
	assert.Equal(t, 90.0, report.Students[0].Percentages["co-1"])
	assert.Empty(t, report.Warnings)
}

func TestBuildCourseReportSectionAndWarnings(t *testing.T) {
	snap := endToEndSnapshot()
	course := snap.Courses[0]
	course.AttainmentLevels = models.AttainmentLevels{Level1: 70, Level2: 50, Level3: 30}
	course.ExternalWeightage = 50

	report := BuildCourseReport(snap, course, "sec-a")

	assert.Equal(t, []string{"sec-a"}, report.SectionIDs)
	assert.Equal(t, 3, report.ScopeSize)
	assert.Len(t, report.Warnings, 2)
	assert.Equal(t, 2, report.Outcomes[0].StudentsMeetingTarget)
}

func TestStudentReport(t *testing.T) {
	snap := endToEndSnapshot()
	student, ok := snap.Student("s4")
	require.True(t, ok)

	result := StudentReport(snap, snap.Courses[0], student)

	assert.Equal(t, map[string]float64{"co-1": 50}, result.Percentages)
}

func TestReportsUseEnrollmentSection(t *testing.T) {
	snap := endToEndSnapshot()
	snap.Students[0].SectionID = strPtr("sec-b")
	snap.Students[1].SectionID = nil

	report := BuildCourseReport(snap, snap.Courses[0], "sec-a")

	require.Len(t, report.Students, 3)
	for _, st := range report.Students {
		require.NotNil(t, st.SectionID, st.StudentID)
		assert.Equal(t, "sec-a", *st.SectionID, st.StudentID)
	}

	result := StudentReport(snap, snap.Courses[0], snap.Students[0])
	require.NotNil(t, result.SectionID)
	assert.Equal(t, "sec-a", *result.SectionID)
}
