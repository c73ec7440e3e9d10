package attainment

import "github.com/noah-isme/obe-attainment-api/internal/models"

// ActivateCourse returns the enrollments to create when the course becomes
// active: one per active student placed in a section of the course's program
// and batch who is not yet enrolled. The returned enrollments carry no ID.
// Applying the result and calling again yields nothing.
func ActivateCourse(snap *models.Snapshot, course models.Course) []models.Enrollment {
	sections := make(map[string]struct{})
	for _, sec := range snap.SectionsOf(course.ProgramID, course.BatchID) {
		sections[sec.ID] = struct{}{}
	}
	if len(sections) == 0 {
		return nil
	}

	enrolled := make(map[string]struct{})
	for _, e := range snap.Enrollments {
		if e.CourseID == course.ID {
			enrolled[e.StudentID] = struct{}{}
		}
	}

	var out []models.Enrollment
	for _, st := range snap.Students {
		if !st.Active() || st.SectionID == nil {
			continue
		}
		if _, ok := sections[*st.SectionID]; !ok {
			continue
		}
		if _, ok := enrolled[st.ID]; ok {
			continue
		}
		sectionID := *st.SectionID
		out = append(out, models.Enrollment{StudentID: st.ID, CourseID: course.ID, SectionID: &sectionID})
		enrolled[st.ID] = struct{}{}
	}
	return out
}
