package attainment

import "github.com/noah-isme/obe-attainment-api/internal/models"

// OutcomeResult is a CO's attainment over the report scope.
type OutcomeResult struct {
	COID        string  `json:"co_id"`
	Number      string  `json:"number"`
	Description string  `json:"description"`
	Questions   int     `json:"questions"`
	MaxMarks    float64 `json:"max_marks"`
	Average     float64 `json:"average_percentage"`
	COLevel
}

// StudentResult holds one student's CO percentages keyed by CO id. SectionID
// is the section of the course enrollment, which may differ from the
// student's current section.
type StudentResult struct {
	StudentID   string             `json:"student_id"`
	Name        string             `json:"name"`
	SectionID   *string            `json:"section_id,omitempty"`
	Percentages map[string]float64 `json:"percentages"`
}

// CourseReport is the attainment of every CO of a course over a scope.
type CourseReport struct {
	CourseID   string          `json:"course_id"`
	CourseCode string          `json:"course_code"`
	CourseName string          `json:"course_name"`
	SectionIDs []string        `json:"section_ids,omitempty"`
	Target     float64         `json:"target"`
	ScopeSize  int             `json:"scope_size"`
	Outcomes   []OutcomeResult `json:"outcomes"`
	Students   []StudentResult `json:"students"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// BuildCourseReport evaluates every CO of the course for the active students
// enrolled in the given sections, or in the whole course when none are given.
func BuildCourseReport(snap *models.Snapshot, course models.Course, sectionIDs ...string) CourseReport {
	idx := indexMarks(snap)
	scope := ScopeStudents(snap, course.ID, sectionIDs...)
	outcomes := snap.OutcomesOf(course.ID)

	report := CourseReport{
		CourseID:   course.ID,
		CourseCode: course.Code,
		CourseName: course.Name,
		SectionIDs: sectionIDs,
		Target:     course.Target,
		ScopeSize:  len(scope),
		Outcomes:   make([]OutcomeResult, 0, len(outcomes)),
		Students:   make([]StudentResult, 0, len(scope)),
		Warnings:   course.Warnings(),
	}

	enrolledIn := make(map[string]*string)
	for _, e := range snap.Enrollments {
		if e.CourseID == course.ID {
			enrolledIn[e.StudentID] = e.SectionID
		}
	}
	for _, st := range scope {
		report.Students = append(report.Students, StudentResult{
			StudentID:   st.ID,
			Name:        st.Name,
			SectionID:   enrolledIn[st.ID],
			Percentages: make(map[string]float64, len(outcomes)),
		})
	}

	for _, co := range outcomes {
		questions := questionsFor(snap, co.ID, course.ID)
		result := OutcomeResult{
			COID:        co.ID,
			Number:      co.Number,
			Description: co.Description,
			Questions:   len(questions),
			COLevel:     courseCOLevel(idx, questions, scope, course),
		}
		for _, q := range questions {
			result.MaxMarks += q.question.MaxMarks
		}
		var sum float64
		for i := range report.Students {
			pct := studentPercentage(idx, questions, report.Students[i].StudentID)
			report.Students[i].Percentages[co.ID] = pct
			sum += pct
		}
		if len(scope) > 0 {
			result.Average = sum / float64(len(scope))
		}
		report.Outcomes = append(report.Outcomes, result)
	}
	return report
}

// StudentReport returns one student's percentage for every CO of the course.
func StudentReport(snap *models.Snapshot, course models.Course, student models.Student) StudentResult {
	idx := indexMarks(snap)
	result := StudentResult{
		StudentID:   student.ID,
		Name:        student.Name,
		Percentages: make(map[string]float64),
	}
	if e, ok := snap.EnrollmentOf(student.ID, course.ID); ok {
		result.SectionID = e.SectionID
	}
	for _, co := range snap.OutcomesOf(course.ID) {
		result.Percentages[co.ID] = studentPercentage(idx, questionsFor(snap, co.ID, course.ID), student.ID)
	}
	return result
}
