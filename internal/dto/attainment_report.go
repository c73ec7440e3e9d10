package dto

import "time"

// AttainmentReportRequest asks for a downloadable course attainment report.
type AttainmentReportRequest struct {
	CourseID  string `json:"course_id" validate:"required"`
	SectionID string `json:"section_id"`
	Format    string `json:"format" validate:"required,oneof=csv pdf"`
}

// AttainmentReportResponse points at the rendered file.
type AttainmentReportResponse struct {
	ReportID  string    `json:"report_id"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
