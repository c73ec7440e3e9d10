package attainment

import "github.com/noah-isme/obe-attainment-api/internal/models"

// MappingLevel returns the CO-PO mapping level, 0 when unmapped.
func MappingLevel(snap *models.Snapshot, coID, poID string) int {
	for _, m := range snap.Mappings {
		if m.COID == coID && m.POID == poID {
			return m.Level
		}
	}
	return 0
}

// AverageLinkage is the mean mapping level between the course's COs and po,
// counting only COs with a nonzero link. No links yields 0.
func AverageLinkage(snap *models.Snapshot, po models.ProgramOutcome, courseID string) float64 {
	var sum, linked int
	for _, co := range snap.OutcomesOf(courseID) {
		if lvl := MappingLevel(snap, co.ID, po.ID); lvl > 0 {
			sum += lvl
			linked++
		}
	}
	if linked == 0 {
		return 0
	}
	return float64(sum) / float64(linked)
}

// LinkageRow is one CO's mapping levels, keyed by PO id.
type LinkageRow struct {
	COID   string         `json:"co_id"`
	Number string         `json:"number"`
	Levels map[string]int `json:"levels"`
}

// LinkageMatrix is the CO x PO articulation matrix of a course.
type LinkageMatrix struct {
	CourseID string                  `json:"course_id"`
	POs      []models.ProgramOutcome `json:"program_outcomes"`
	Rows     []LinkageRow            `json:"rows"`
	Averages map[string]float64      `json:"averages"`
}

// CourseLinkage builds the articulation matrix between the course's COs and
// the POs of its program.
func CourseLinkage(snap *models.Snapshot, course models.Course) LinkageMatrix {
	matrix := LinkageMatrix{
		CourseID: course.ID,
		POs:      snap.ProgramOutcomesOf(course.ProgramID),
		Averages: make(map[string]float64),
	}
	for _, co := range snap.OutcomesOf(course.ID) {
		row := LinkageRow{COID: co.ID, Number: co.Number, Levels: make(map[string]int)}
		for _, po := range matrix.POs {
			row.Levels[po.ID] = MappingLevel(snap, co.ID, po.ID)
		}
		matrix.Rows = append(matrix.Rows, row)
	}
	for _, po := range matrix.POs {
		matrix.Averages[po.ID] = AverageLinkage(snap, po, course.ID)
	}
	return matrix
}
