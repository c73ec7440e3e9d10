package dto

import "github.com/noah-isme/obe-attainment-api/internal/models"

// CourseRequest captures course create and update payloads.
type CourseRequest struct {
	ProgramID         string                    `json:"program_id" validate:"required"`
	BatchID           string                    `json:"batch_id" validate:"required"`
	Code              string                    `json:"code" validate:"required,max=32"`
	Name              string                    `json:"name" validate:"required,max=255"`
	Semester          int                       `json:"semester" validate:"min=1,max=16"`
	Target            float64                   `json:"target"`
	InternalWeightage float64                   `json:"internal_weightage" validate:"gte=0"`
	ExternalWeightage float64                   `json:"external_weightage" validate:"gte=0"`
	AttainmentLevels  models.AttainmentLevels   `json:"attainment_levels"`
	Teachers          *TeacherAssignmentRequest `json:"teachers,omitempty"`
}

// TeacherAssignmentRequest describes who teaches a course. Sections maps
// section IDs to teacher IDs and is only read for PER_SECTION.
type TeacherAssignmentRequest struct {
	Kind      models.AssignmentKind `json:"kind" validate:"required,oneof=SINGLE PER_SECTION"`
	TeacherID string                `json:"teacher_id"`
	Sections  map[string]string     `json:"sections"`
}

// Assignment converts the payload into the persisted variant.
func (r TeacherAssignmentRequest) Assignment() models.TeacherAssignment {
	if r.Kind == models.AssignmentPerSection {
		return models.PerSectionTeachers(r.TeacherID, r.Sections)
	}
	return models.SingleTeacher(r.TeacherID)
}

// CourseStatusRequest moves a course through its lifecycle.
type CourseStatusRequest struct {
	Status models.CourseStatus `json:"status" validate:"required,oneof=FUTURE ACTIVE COMPLETED"`
}

// CourseDetail is a course plus its configuration warnings.
type CourseDetail struct {
	models.Course
	Warnings []string `json:"warnings,omitempty"`
}

// CourseStatusResponse reports the outcome of a status change.
type CourseStatusResponse struct {
	Course             models.Course `json:"course"`
	EnrollmentsCreated int           `json:"enrollments_created"`
}
