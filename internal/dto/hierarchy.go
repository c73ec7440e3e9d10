package dto

import "github.com/noah-isme/obe-attainment-api/internal/models"

// CollegeRequest creates a college.
type CollegeRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ProgramRequest creates a program inside a college.
type ProgramRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	DurationYears int    `json:"duration_years" validate:"min=1,max=10"`
}

// BatchRequest creates a batch of a program.
type BatchRequest struct {
	StartYear int `json:"start_year" validate:"min=1900,max=2999"`
}

// SectionRequest creates a section of a program batch.
type SectionRequest struct {
	BatchID string `json:"batch_id" validate:"required"`
	Name    string `json:"name" validate:"required,max=64"`
}

// BatchView is a batch with its derived year range.
type BatchView struct {
	models.Batch
	Years models.BatchYears `json:"years"`
}
