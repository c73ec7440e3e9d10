package dto

import "github.com/noah-isme/obe-attainment-api/internal/models"

// CreateUserRequest registers an account.
type CreateUserRequest struct {
	Name           string      `json:"name" validate:"required,max=255"`
	Email          string      `json:"email" validate:"required,email"`
	Password       string      `json:"password" validate:"required,min=8"`
	Role           models.Role `json:"role" validate:"required,oneof=TEACHER COORDINATOR DEPARTMENT UNIVERSITY ADMIN"`
	CoordinatorIDs []string    `json:"coordinator_ids"`
	DepartmentID   *string     `json:"department_id"`
	CollegeID      *string     `json:"college_id"`
}
