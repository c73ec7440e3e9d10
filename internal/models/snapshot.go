package models

// Snapshot is a read-only view of every collection the attainment engine
// needs. Callers load a fresh one per computation and never mutate it.
type Snapshot struct {
	Users           []User           `json:"users"`
	Colleges        []College        `json:"colleges"`
	Programs        []Program        `json:"programs"`
	Batches         []Batch          `json:"batches"`
	Sections        []Section        `json:"sections"`
	Courses         []Course         `json:"courses"`
	Students        []Student        `json:"students"`
	Enrollments     []Enrollment     `json:"enrollments"`
	CourseOutcomes  []CourseOutcome  `json:"course_outcomes"`
	ProgramOutcomes []ProgramOutcome `json:"program_outcomes"`
	Mappings        []CoPoMapping    `json:"mappings"`
	Assessments     []Assessment     `json:"assessments"`
	Marks           []Mark           `json:"marks"`
}

// Course finds a course by id.
func (s *Snapshot) Course(id string) (Course, bool) {
	for _, c := range s.Courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}

// Program finds a program by id.
func (s *Snapshot) Program(id string) (Program, bool) {
	for _, p := range s.Programs {
		if p.ID == id {
			return p, true
		}
	}
	return Program{}, false
}

// User finds a user by id.
func (s *Snapshot) User(id string) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// Student finds a student by id.
func (s *Snapshot) Student(id string) (Student, bool) {
	for _, st := range s.Students {
		if st.ID == id {
			return st, true
		}
	}
	return Student{}, false
}

// CourseOutcome finds a course outcome by id.
func (s *Snapshot) CourseOutcome(id string) (CourseOutcome, bool) {
	for _, co := range s.CourseOutcomes {
		if co.ID == id {
			return co, true
		}
	}
	return CourseOutcome{}, false
}

// ProgramOutcome finds a program outcome by id.
func (s *Snapshot) ProgramOutcome(id string) (ProgramOutcome, bool) {
	for _, po := range s.ProgramOutcomes {
		if po.ID == id {
			return po, true
		}
	}
	return ProgramOutcome{}, false
}

// OutcomesOf lists the course's COs in stored order.
func (s *Snapshot) OutcomesOf(courseID string) []CourseOutcome {
	var out []CourseOutcome
	for _, co := range s.CourseOutcomes {
		if co.CourseID == courseID {
			out = append(out, co)
		}
	}
	return out
}

// ProgramOutcomesOf lists the program's POs in stored order.
func (s *Snapshot) ProgramOutcomesOf(programID string) []ProgramOutcome {
	var out []ProgramOutcome
	for _, po := range s.ProgramOutcomes {
		if po.ProgramID == programID {
			out = append(out, po)
		}
	}
	return out
}

// AssessmentsOf lists every assessment of the course regardless of section.
func (s *Snapshot) AssessmentsOf(courseID string) []Assessment {
	var out []Assessment
	for _, a := range s.Assessments {
		if a.CourseID == courseID {
			out = append(out, a)
		}
	}
	return out
}

// SectionsOf lists the sections of a program and batch.
func (s *Snapshot) SectionsOf(programID, batchID string) []Section {
	var out []Section
	for _, sec := range s.Sections {
		if sec.ProgramID == programID && sec.BatchID == batchID {
			out = append(out, sec)
		}
	}
	return out
}

// EnrollmentOf finds the student's enrollment in a course.
func (s *Snapshot) EnrollmentOf(studentID, courseID string) (Enrollment, bool) {
	for _, e := range s.Enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return e, true
		}
	}
	return Enrollment{}, false
}

// MarkFor finds the student's mark record for an assessment.
func (s *Snapshot) MarkFor(studentID, assessmentID string) (Mark, bool) {
	for _, m := range s.Marks {
		if m.StudentID == studentID && m.AssessmentID == assessmentID {
			return m, true
		}
	}
	return Mark{}, false
}
