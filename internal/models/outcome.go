package models

import "time"

// CourseOutcome is a learning objective of a course.
type CourseOutcome struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Number      string    `db:"number" json:"number"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ProgramOutcome is a learning objective of a program.
type ProgramOutcome struct {
	ID          string    `db:"id" json:"id"`
	ProgramID   string    `db:"program_id" json:"program_id"`
	Number      string    `db:"number" json:"number"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MaxMappingLevel is the strongest CO-PO contribution.
const MaxMappingLevel = 3

// CoPoMapping records how strongly a CO contributes to a PO. Only levels 1-3
// are stored; level 0 means there is no row.
type CoPoMapping struct {
	CourseID string `db:"course_id" json:"course_id"`
	COID     string `db:"co_id" json:"co_id"`
	POID     string `db:"po_id" json:"po_id"`
	Level    int    `db:"level" json:"level"`
}
