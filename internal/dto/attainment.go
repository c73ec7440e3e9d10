package dto

import "github.com/noah-isme/obe-attainment-api/internal/attainment"

// AttainmentQuery carries the optional overrides of an attainment request.
type AttainmentQuery struct {
	SectionID      string   `form:"sectionId"`
	DirectWeight   *float64 `form:"directWeight"`
	IndirectWeight *float64 `form:"indirectWeight"`
	IndirectScore  *float64 `form:"indirectScore"`
}

// StudentOutcome is a student's result on one CO.
type StudentOutcome struct {
	COID        string  `json:"co_id"`
	Number      string  `json:"number"`
	Percentage  float64 `json:"percentage"`
	MeetsTarget bool    `json:"meets_target"`
}

// StudentAttainmentResponse is one student's CO attainment in a course.
type StudentAttainmentResponse struct {
	CourseID  string           `json:"course_id"`
	StudentID string           `json:"student_id"`
	Name      string           `json:"name"`
	SectionID *string          `json:"section_id,omitempty"`
	Target    float64          `json:"target"`
	Outcomes  []StudentOutcome `json:"outcomes"`
}

// ProgramAttainmentResponse lists every PO of a program with the weights used.
type ProgramAttainmentResponse struct {
	ProgramID      string                    `json:"program_id"`
	ProgramName    string                    `json:"program_name"`
	DirectWeight   float64                   `json:"direct_weight"`
	IndirectWeight float64                   `json:"indirect_weight"`
	IndirectScore  float64                   `json:"indirect_score"`
	Outcomes       []attainment.POAttainment `json:"outcomes"`
	Warnings       []string                  `json:"warnings,omitempty"`
}
