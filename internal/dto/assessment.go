package dto

import "github.com/noah-isme/obe-attainment-api/internal/models"

// AssessmentRequest creates an assessment with its question paper.
type AssessmentRequest struct {
	SectionID *string               `json:"section_id"`
	Name      string                `json:"name" validate:"required,max=255"`
	Type      models.AssessmentType `json:"type" validate:"required,oneof=INTERNAL EXTERNAL"`
	Questions []models.Question     `json:"questions" validate:"required,min=1,dive"`
}

// MarkEntry is one student's scores on an assessment.
type MarkEntry struct {
	StudentID string                 `json:"student_id" validate:"required"`
	Scores    []models.QuestionScore `json:"scores"`
}

// SaveMarksRequest upserts marks for several students at once.
type SaveMarksRequest struct {
	Marks []MarkEntry `json:"marks" validate:"required,min=1,dive"`
}
