package models

import (
	"fmt"
	"time"
)

// College is the top of the containment hierarchy.
type College struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Program belongs to exactly one college.
type Program struct {
	ID            string    `db:"id" json:"id"`
	CollegeID     string    `db:"college_id" json:"college_id"`
	Name          string    `db:"name" json:"name"`
	DurationYears int       `db:"duration_years" json:"duration_years"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Batch is an intake of a program identified by its starting year.
type Batch struct {
	ID        string    `db:"id" json:"id"`
	ProgramID string    `db:"program_id" json:"program_id"`
	StartYear int       `db:"start_year" json:"start_year"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BatchYears is the nominal year range of a batch.
type BatchYears struct {
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
	Label     string `json:"label"`
}

// Years derives the batch's range from the program's nominal duration.
func (b Batch) Years(p Program) BatchYears {
	end := b.StartYear + p.DurationYears
	return BatchYears{StartYear: b.StartYear, EndYear: end, Label: fmt.Sprintf("%d-%d", b.StartYear, end)}
}

// Section subdivides a program batch.
type Section struct {
	ID        string    `db:"id" json:"id"`
	ProgramID string    `db:"program_id" json:"program_id"`
	BatchID   string    `db:"batch_id" json:"batch_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
