package models

import "time"

// StudentStatus marks whether a student counts towards attainment.
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "ACTIVE"
	StudentStatusInactive StudentStatus = "INACTIVE"
)

// Student belongs to one program and, optionally, one section.
type Student struct {
	ID        string        `db:"id" json:"id"`
	ProgramID string        `db:"program_id" json:"program_id"`
	SectionID *string       `db:"section_id" json:"section_id,omitempty"`
	Name      string        `db:"name" json:"name"`
	Status    StudentStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// Active reports whether the student counts in attainment denominators.
func (s Student) Active() bool {
	return s.Status == StudentStatusActive
}
