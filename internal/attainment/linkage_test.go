package attainment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

func linkageSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Courses: []models.Course{{ID: "c1", ProgramID: "p1"}},
		CourseOutcomes: []models.CourseOutcome{
			{ID: "co-1", CourseID: "c1", Number: "CO1"},
			{ID: "co-2", CourseID: "c1", Number: "CO2"},
			{ID: "co-3", CourseID: "c1", Number: "CO3"},
		},
		ProgramOutcomes: []models.ProgramOutcome{
			{ID: "po-1", ProgramID: "p1", Number: "PO1"},
			{ID: "po-2", ProgramID: "p1", Number: "PO2"},
		},
		Mappings: []models.CoPoMapping{
			{CourseID: "c1", COID: "co-1", POID: "po-1", Level: 2},
			{CourseID: "c1", COID: "co-3", POID: "po-1", Level: 3},
		},
	}
}

func TestAverageLinkageExcludesUnmappedCOs(t *testing.T) {
	snap := linkageSnapshot()

	assert.InDelta(t, 2.5, AverageLinkage(snap, snap.ProgramOutcomes[0], "c1"), 1e-9)
	assert.Equal(t, 0.0, AverageLinkage(snap, snap.ProgramOutcomes[1], "c1"))
}

func TestCourseLinkageMatrix(t *testing.T) {
	snap := linkageSnapshot()

	matrix := CourseLinkage(snap, snap.Courses[0])

	require.Len(t, matrix.Rows, 3)
	assert.Equal(t, map[string]int{"po-1": 2, "po-2": 0}, matrix.Rows[0].Levels)
	assert.Equal(t, 0, matrix.Rows[1].Levels["po-1"])
	assert.InDelta(t, 2.5, matrix.Averages["po-1"], 1e-9)
	assert.Equal(t, 0.0, matrix.Averages["po-2"])
}
