// Package attainment computes course and program outcome attainment from a
// snapshot. Every function is pure: it reads the snapshot and returns values.
package attainment

import "github.com/noah-isme/obe-attainment-api/internal/models"

// MaxLevel is the highest attainment level a CO or PO can reach.
const MaxLevel = 3

// COLevel is the course-level outcome of one CO over a set of students.
type COLevel struct {
	StudentsMeetingTarget   int     `json:"students_meeting_target"`
	ScopeSize               int     `json:"scope_size"`
	PercentageMeetingTarget float64 `json:"percentage_meeting_target"`
	Level                   int     `json:"level"`
}

// coQuestion pairs a question with the assessment it belongs to.
type coQuestion struct {
	assessmentID string
	question     models.Question
}

type markKey struct {
	studentID    string
	assessmentID string
}

// marksIndex is a lookup of mark records by student and assessment.
type marksIndex map[markKey]models.Scores

func indexMarks(snap *models.Snapshot) marksIndex {
	idx := make(marksIndex, len(snap.Marks))
	for _, m := range snap.Marks {
		idx[markKey{m.StudentID, m.AssessmentID}] = m.Scores
	}
	return idx
}

// questionsFor collects every question of the course's assessments that
// lists coID. Sections are ignored.
func questionsFor(snap *models.Snapshot, coID, courseID string) []coQuestion {
	var out []coQuestion
	for _, a := range snap.Assessments {
		if a.CourseID != courseID {
			continue
		}
		for _, q := range a.Questions {
			if q.Covers(coID) {
				out = append(out, coQuestion{assessmentID: a.ID, question: q})
			}
		}
	}
	return out
}

func studentPercentage(idx marksIndex, questions []coQuestion, studentID string) float64 {
	var totalMax, obtained float64
	for _, cq := range questions {
		totalMax += cq.question.MaxMarks
		if scores, ok := idx[markKey{studentID, cq.assessmentID}]; ok {
			if v, ok := scores.Lookup(cq.question.Name); ok {
				obtained += v
			}
		}
	}
	if totalMax == 0 {
		return 0
	}
	return obtained / totalMax * 100
}

// StudentCOAttainment returns the student's percentage of marks obtained on
// the questions mapped to co across every assessment of the course. Missing
// marks and absent scores count as zero. A CO with no mapped questions yields 0.
func StudentCOAttainment(snap *models.Snapshot, studentID string, co models.CourseOutcome, courseID string) float64 {
	return studentPercentage(indexMarks(snap), questionsFor(snap, co.ID, courseID), studentID)
}

// CourseCOLevel counts the scope students whose CO percentage reaches the
// course target and maps that share onto the course's attainment levels.
func CourseCOLevel(snap *models.Snapshot, co models.CourseOutcome, courseID string, scope []models.Student, course models.Course) COLevel {
	return courseCOLevel(indexMarks(snap), questionsFor(snap, co.ID, courseID), scope, course)
}

func courseCOLevel(idx marksIndex, questions []coQuestion, scope []models.Student, course models.Course) COLevel {
	result := COLevel{ScopeSize: len(scope)}
	if len(scope) == 0 {
		result.Level = LevelFor(0, course.AttainmentLevels)
		return result
	}
	for _, st := range scope {
		if studentPercentage(idx, questions, st.ID) >= course.Target {
			result.StudentsMeetingTarget++
		}
	}
	result.PercentageMeetingTarget = float64(result.StudentsMeetingTarget) / float64(len(scope)) * 100
	result.Level = LevelFor(result.PercentageMeetingTarget, course.AttainmentLevels)
	return result
}

// LevelFor maps a percentage of students onto a level. Level 3 is checked
// first, then 2, then 1, whatever the ordering of the thresholds.
func LevelFor(pct float64, levels models.AttainmentLevels) int {
	switch {
	case pct >= levels.Level3:
		return 3
	case pct >= levels.Level2:
		return 2
	case pct >= levels.Level1:
		return 1
	default:
		return 0
	}
}
