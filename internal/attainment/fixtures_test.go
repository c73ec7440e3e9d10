package attainment

import "github.com/noah-isme/obe-attainment-api/internal/models"

func strPtr(s string) *string { return &s }

func score(q string, v float64) models.QuestionScore {
	return models.QuestionScore{Question: q, Value: &v}
}

func absent(q string) models.QuestionScore {
	return models.QuestionScore{Question: q}
}

func activeStudent(id, sectionID string) models.Student {
	st := models.Student{ID: id, ProgramID: "prog-1", Name: "Student " + id, Status: models.StudentStatusActive}
	if sectionID != "" {
		st.SectionID = strPtr(sectionID)
	}
	return st
}

func enroll(studentID, courseID, sectionID string) models.Enrollment {
	e := models.Enrollment{ID: "enr-" + studentID + "-" + courseID, StudentID: studentID, CourseID: courseID}
	if sectionID != "" {
		e.SectionID = strPtr(sectionID)
	}
	return e
}

func baseCourse() models.Course {
	return models.Course{
		ID:                "course-1",
		ProgramID:         "prog-1",
		BatchID:           "batch-1",
		Code:              "CS101",
		Name:              "Programming",
		Status:            models.CourseStatusActive,
		Target:            60,
		InternalWeightage: 40,
		ExternalWeightage: 60,
		AttainmentLevels:  models.AttainmentLevels{Level1: 30, Level2: 50, Level3: 60},
		TeacherAssignment: models.SingleTeacher("t1"),
	}
}

// endToEndSnapshot has five students in two sections scoring 18, 15, 5, 10
// and 20 out of 20 on the only CO1 question.
func endToEndSnapshot() *models.Snapshot {
	course := baseCourse()
	snap := &models.Snapshot{
		Programs: []models.Program{{ID: "prog-1", CollegeID: "col-1", Name: "CSE", DurationYears: 4}},
		Batches:  []models.Batch{{ID: "batch-1", ProgramID: "prog-1", StartYear: 2022}},
		Sections: []models.Section{
			{ID: "sec-a", ProgramID: "prog-1", BatchID: "batch-1", Name: "A"},
			{ID: "sec-b", ProgramID: "prog-1", BatchID: "batch-1", Name: "B"},
		},
		Courses:         []models.Course{course},
		CourseOutcomes:  []models.CourseOutcome{{ID: "co-1", CourseID: course.ID, Number: "CO1"}},
		ProgramOutcomes: []models.ProgramOutcome{{ID: "po-1", ProgramID: "prog-1", Number: "PO1"}},
		Assessments: []models.Assessment{{
			ID:        "asm-1",
			CourseID:  course.ID,
			Name:      "Midterm",
			Type:      models.AssessmentInternal,
			Questions: models.Questions{{Name: "Q1", MaxMarks: 20, COIDs: []string{"co-1"}}},
		}},
	}
	scores := []float64{18, 15, 5, 10, 20}
	ids := []string{"s1", "s2", "s3", "s4", "s5"}
	for i, id := range ids {
		section := "sec-a"
		if i >= 3 {
			section = "sec-b"
		}
		snap.Students = append(snap.Students, activeStudent(id, section))
		snap.Enrollments = append(snap.Enrollments, enroll(id, course.ID, section))
		snap.Marks = append(snap.Marks, models.Mark{
			ID:           "mark-" + id,
			StudentID:    id,
			AssessmentID: "asm-1",
			Scores:       models.Scores{score("Q1", scores[i])},
		})
	}
	return snap
}
