package models

// Role is the closed set of user roles.
type Role string

const (
	RoleTeacher     Role = "TEACHER"
	RoleCoordinator Role = "COORDINATOR"
	RoleDepartment  Role = "DEPARTMENT"
	RoleUniversity  Role = "UNIVERSITY"
	RoleAdmin       Role = "ADMIN"
)

// Capability names an action a role may perform.
type Capability string

const (
	CapViewCourses           Capability = "view_courses"
	CapEditCourses           Capability = "edit_courses"
	CapViewOutcomes          Capability = "view_outcomes"
	CapEditOutcomes          Capability = "edit_outcomes"
	CapEditMappings          Capability = "edit_mappings"
	CapUploadMarks           Capability = "upload_marks"
	CapViewAttainment        Capability = "view_attainment"
	CapViewProgramAttainment Capability = "view_program_attainment"
	CapManageStudents        Capability = "manage_students"
	CapManageHierarchy       Capability = "manage_hierarchy"
	CapChooseSection         Capability = "choose_section"
	CapExportReports         Capability = "export_reports"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleTeacher: capSet(
		CapViewCourses, CapViewOutcomes, CapEditOutcomes, CapEditMappings,
		CapUploadMarks, CapViewAttainment, CapExportReports,
	),
	RoleCoordinator: capSet(
		CapViewCourses, CapEditCourses, CapViewOutcomes, CapEditOutcomes, CapEditMappings,
		CapViewAttainment, CapViewProgramAttainment, CapManageStudents, CapChooseSection,
		CapExportReports,
	),
	RoleDepartment: capSet(
		CapViewCourses, CapEditCourses, CapViewOutcomes, CapViewAttainment,
		CapViewProgramAttainment, CapManageStudents, CapChooseSection, CapExportReports,
	),
	RoleUniversity: capSet(
		CapViewCourses, CapViewOutcomes, CapViewAttainment, CapViewProgramAttainment,
		CapChooseSection, CapExportReports,
	),
	RoleAdmin: capSet(
		CapViewCourses, CapEditCourses, CapViewOutcomes, CapEditOutcomes, CapEditMappings,
		CapUploadMarks, CapViewAttainment, CapViewProgramAttainment, CapManageStudents,
		CapManageHierarchy, CapChooseSection, CapExportReports,
	),
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants capability c. Unknown roles grant nothing.
func (r Role) Can(c Capability) bool {
	_, ok := roleCapabilities[r][c]
	return ok
}
