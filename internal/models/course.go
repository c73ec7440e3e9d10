package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// CourseStatus tracks the course lifecycle.
type CourseStatus string

const (
	CourseStatusFuture    CourseStatus = "FUTURE"
	CourseStatusActive    CourseStatus = "ACTIVE"
	CourseStatusCompleted CourseStatus = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusFuture, CourseStatusActive, CourseStatusCompleted:
		return true
	}
	return false
}

// AttainmentLevels are the percentages of students that must meet the CO
// target for levels 1 to 3.
type AttainmentLevels struct {
	Level1 float64 `db:"level1" json:"level1"`
	Level2 float64 `db:"level2" json:"level2"`
	Level3 float64 `db:"level3" json:"level3"`
}

// AssignmentKind tags the TeacherAssignment variant.
type AssignmentKind string

const (
	AssignmentSingle     AssignmentKind = "SINGLE"
	AssignmentPerSection AssignmentKind = "PER_SECTION"
)

// TeacherAssignment is either Single(teacher) or PerSection(fallback, map).
// In the per-section variant TeacherID is the fallback for sections without
// an explicit entry.
type TeacherAssignment struct {
	Kind      AssignmentKind  `db:"teacher_mode" json:"kind"`
	TeacherID string          `db:"teacher_id" json:"teacher_id,omitempty"`
	Sections  SectionTeachers `db:"section_teachers" json:"sections,omitempty"`
}

// SingleTeacher assigns one teacher to every section.
func SingleTeacher(teacherID string) TeacherAssignment {
	return TeacherAssignment{Kind: AssignmentSingle, TeacherID: teacherID}
}

// PerSectionTeachers assigns teachers per section with a fallback.
func PerSectionTeachers(fallbackID string, sections map[string]string) TeacherAssignment {
	return TeacherAssignment{Kind: AssignmentPerSection, TeacherID: fallbackID, Sections: SectionTeachers(sections)}
}

// TeacherFor resolves the teacher of a section. An explicit entry always wins;
// otherwise the default teacher applies to that section.
func (a TeacherAssignment) TeacherFor(sectionID string) string {
	if a.Kind == AssignmentPerSection {
		if id, ok := a.Sections[sectionID]; ok && id != "" {
			return id
		}
	}
	return a.TeacherID
}

// Involves reports whether the teacher appears anywhere in the assignment.
func (a TeacherAssignment) Involves(teacherID string) bool {
	if teacherID == "" {
		return false
	}
	if a.TeacherID == teacherID {
		return true
	}
	if a.Kind != AssignmentPerSection {
		return false
	}
	for _, id := range a.Sections {
		if id == teacherID {
			return true
		}
	}
	return false
}

// SectionTeachers maps section IDs to teacher IDs, persisted as JSONB.
type SectionTeachers map[string]string

// Value marshals the map for persistence.
func (m SectionTeachers) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, fmt.Errorf("marshal section teachers: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB column.
func (m *SectionTeachers) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("scan section teachers: %w", err)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	out := map[string]string{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal section teachers: %w", err)
	}
	*m = out
	return nil
}

// Course belongs to one program and batch.
type Course struct {
	ID                string       `db:"id" json:"id"`
	ProgramID         string       `db:"program_id" json:"program_id"`
	BatchID           string       `db:"batch_id" json:"batch_id"`
	Code              string       `db:"code" json:"code"`
	Name              string       `db:"name" json:"name"`
	Semester          int          `db:"semester" json:"semester"`
	Status            CourseStatus `db:"status" json:"status"`
	Target            float64      `db:"target" json:"target"`
	InternalWeightage float64      `db:"internal_weightage" json:"internal_weightage"`
	ExternalWeightage float64      `db:"external_weightage" json:"external_weightage"`
	AttainmentLevels  `json:"attainment_levels"`
	TeacherAssignment `json:"teachers"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Warnings lists configuration inconsistencies. They never block computation.
func (c Course) Warnings() []string {
	var warnings []string
	if sum := c.InternalWeightage + c.ExternalWeightage; math.Abs(sum-100) > 1e-9 {
		warnings = append(warnings, fmt.Sprintf("internal and external weightage sum to %g, not 100", sum))
	}
	l := c.AttainmentLevels
	if !(l.Level1 <= l.Level2 && l.Level2 <= l.Level3) {
		warnings = append(warnings, fmt.Sprintf("attainment thresholds are not ascending (level1=%g, level2=%g, level3=%g); level 3 is evaluated first", l.Level1, l.Level2, l.Level3))
	}
	if c.Target < 0 || c.Target > 100 {
		warnings = append(warnings, fmt.Sprintf("target %g is outside 0-100", c.Target))
	}
	return warnings
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	ProgramID string
	BatchID   string
	Status    CourseStatus
}
