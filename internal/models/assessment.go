package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AssessmentType splits marks into internal and external components.
type AssessmentType string

const (
	AssessmentInternal AssessmentType = "INTERNAL"
	AssessmentExternal AssessmentType = "EXTERNAL"
)

// Valid reports whether t is a known assessment type.
func (t AssessmentType) Valid() bool {
	return t == AssessmentInternal || t == AssessmentExternal
}

// Question is one gradable item of an assessment.
type Question struct {
	Name     string   `json:"name" validate:"required"`
	MaxMarks float64  `json:"max_marks" validate:"gt=0"`
	COIDs    []string `json:"co_ids"`
}

// Covers reports whether the question assesses the given CO.
func (q Question) Covers(coID string) bool {
	for _, id := range q.COIDs {
		if id == coID {
			return true
		}
	}
	return false
}

// Questions is the ordered question list persisted as JSONB.
type Questions []Question

// Value marshals the questions for persistence.
func (q Questions) Value() (driver.Value, error) {
	if q == nil {
		q = Questions{}
	}
	data, err := json.Marshal([]Question(q))
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB column.
func (q *Questions) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("scan questions: %w", err)
	}
	if len(data) == 0 {
		*q = nil
		return nil
	}
	var out []Question
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal questions: %w", err)
	}
	*q = out
	return nil
}

// Find returns the question with the given name.
func (q Questions) Find(name string) (Question, bool) {
	for _, question := range q {
		if question.Name == name {
			return question, true
		}
	}
	return Question{}, false
}

// Assessment is a graded instrument of a course, optionally bound to a section.
type Assessment struct {
	ID        string         `db:"id" json:"id"`
	CourseID  string         `db:"course_id" json:"course_id"`
	SectionID *string        `db:"section_id" json:"section_id,omitempty"`
	Name      string         `db:"name" json:"name"`
	Type      AssessmentType `db:"type" json:"type"`
	Questions Questions      `db:"questions" json:"questions"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// QuestionScore is a student's score on one question. A nil Value is absent.
type QuestionScore struct {
	Question string   `json:"question"`
	Value    *float64 `json:"value"`
}

// Scores lists per-question scores, persisted as JSONB.
type Scores []QuestionScore

// Value marshals the scores for persistence.
func (s Scores) Value() (driver.Value, error) {
	if s == nil {
		s = Scores{}
	}
	data, err := json.Marshal([]QuestionScore(s))
	if err != nil {
		return nil, fmt.Errorf("marshal scores: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB column.
func (s *Scores) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("scan scores: %w", err)
	}
	if len(data) == 0 {
		*s = nil
		return nil
	}
	var out []QuestionScore
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal scores: %w", err)
	}
	*s = out
	return nil
}

// Lookup returns the numeric score for a question; absent or missing entries
// report false.
func (s Scores) Lookup(question string) (float64, bool) {
	for _, score := range s {
		if score.Question == question {
			if score.Value == nil {
				return 0, false
			}
			return *score.Value, true
		}
	}
	return 0, false
}

// Mark holds one student's scores on one assessment.
type Mark struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	AssessmentID string    `db:"assessment_id" json:"assessment_id"`
	Scores       Scores    `db:"scores" json:"scores"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
