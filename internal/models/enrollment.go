package models

import "time"

// Enrollment joins a student to a course. SectionID is the student's section
// at enrollment time.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	SectionID *string   `db:"section_id" json:"section_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// InSection reports whether the enrollment was tagged with sectionID.
func (e Enrollment) InSection(sectionID string) bool {
	return e.SectionID != nil && *e.SectionID == sectionID
}
