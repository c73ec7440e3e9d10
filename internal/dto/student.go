package dto

import "github.com/noah-isme/obe-attainment-api/internal/models"

// StudentRequest registers or updates a student of a program. The ID is the
// institution's roll number and is never generated.
type StudentRequest struct {
	ID        string               `json:"id" validate:"required,max=64"`
	Name      string               `json:"name" validate:"required,max=255"`
	SectionID *string              `json:"section_id"`
	Status    models.StudentStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}
