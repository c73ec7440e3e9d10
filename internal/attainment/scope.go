package attainment

import "github.com/noah-isme/obe-attainment-api/internal/models"

// ScopeStudents returns the active students enrolled in the course. When
// sectionIDs are given only enrollments tagged with one of them count.
func ScopeStudents(snap *models.Snapshot, courseID string, sectionIDs ...string) []models.Student {
	var allowed map[string]struct{}
	if len(sectionIDs) > 0 {
		allowed = make(map[string]struct{}, len(sectionIDs))
		for _, id := range sectionIDs {
			allowed[id] = struct{}{}
		}
	}

	enrolled := make(map[string]struct{})
	for _, e := range snap.Enrollments {
		if e.CourseID != courseID {
			continue
		}
		if allowed != nil {
			if e.SectionID == nil {
				continue
			}
			if _, ok := allowed[*e.SectionID]; !ok {
				continue
			}
		}
		enrolled[e.StudentID] = struct{}{}
	}

	out := make([]models.Student, 0, len(enrolled))
	for _, st := range snap.Students {
		if _, ok := enrolled[st.ID]; ok && st.Active() {
			out = append(out, st)
		}
	}
	return out
}

// TeacherSections lists the sections of the course's program and batch that
// the teacher owns. An explicit per-section entry wins; sections without one
// fall back to the default teacher.
func TeacherSections(snap *models.Snapshot, course models.Course, teacherID string) []models.Section {
	if teacherID == "" {
		return nil
	}
	var out []models.Section
	for _, sec := range snap.SectionsOf(course.ProgramID, course.BatchID) {
		if course.TeacherAssignment.TeacherFor(sec.ID) == teacherID {
			out = append(out, sec)
		}
	}
	return out
}

// TeachesCourse reports whether the teacher is the single teacher of the
// course or owns at least one of its sections.
func TeachesCourse(snap *models.Snapshot, course models.Course, teacherID string) bool {
	if teacherID == "" {
		return false
	}
	if course.Kind != models.AssignmentPerSection {
		return course.TeacherID == teacherID
	}
	return len(TeacherSections(snap, course, teacherID)) > 0
}

// VisibleCourses filters the snapshot's courses down to what the user may see.
func VisibleCourses(snap *models.Snapshot, user models.User) []models.Course {
	switch user.Role {
	case models.RoleAdmin, models.RoleUniversity:
		return append([]models.Course(nil), snap.Courses...)
	case models.RoleDepartment:
		return departmentCourses(snap, user)
	case models.RoleCoordinator:
		teachers := make(map[string]struct{})
		for _, u := range snap.Users {
			if u.Role == models.RoleTeacher && u.ReportsTo(user.ID) {
				teachers[u.ID] = struct{}{}
			}
		}
		return filterCourses(snap.Courses, func(c models.Course) bool {
			for id := range teachers {
				if c.Involves(id) {
					return true
				}
			}
			return false
		})
	case models.RoleTeacher:
		return filterCourses(snap.Courses, func(c models.Course) bool {
			return TeachesCourse(snap, c, user.ID)
		})
	}
	return nil
}

func departmentCourses(snap *models.Snapshot, user models.User) []models.Course {
	if user.CollegeID == nil {
		return nil
	}
	programs := make(map[string]struct{})
	for _, p := range snap.Programs {
		if p.CollegeID == *user.CollegeID {
			programs[p.ID] = struct{}{}
		}
	}
	return filterCourses(snap.Courses, func(c models.Course) bool {
		_, ok := programs[c.ProgramID]
		return ok
	})
}

// CanSeeCourse reports whether the course is among the user's visible courses.
func CanSeeCourse(snap *models.Snapshot, user models.User, courseID string) bool {
	for _, c := range VisibleCourses(snap, user) {
		if c.ID == courseID {
			return true
		}
	}
	return false
}

func filterCourses(courses []models.Course, keep func(models.Course) bool) []models.Course {
	var out []models.Course
	for _, c := range courses {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
