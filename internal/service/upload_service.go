package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/ingest"
	"github.com/noah-isme/obe-attainment-api/pkg/middleware/requestid"
)

const (
	columnCode        = "code"
	columnDescription = "description"
	columnID          = "id"
	columnName        = "name"
	columnSection     = "section"
	columnStatus      = "status"
	columnStudentID   = "Student ID"
)

type outcomeSaver interface {
	SaveCourseOutcomes(ctx context.Context, courseID string, reqs []dto.OutcomeRequest, actor *models.JWTClaims) ([]models.CourseOutcome, error)
}

type studentSaver interface {
	Sections(ctx context.Context, programID string, actor *models.JWTClaims) (map[string]models.Section, error)
	Save(ctx context.Context, programID string, reqs []dto.StudentRequest, actor *models.JWTClaims) ([]models.Student, error)
}

type markSaver interface {
	Target(ctx context.Context, id string, actor *models.JWTClaims) (*MarkTarget, error)
	Store(ctx context.Context, target *MarkTarget, entries []dto.MarkEntry) ([]models.Mark, error)
}

// UploadService imports course outcomes, students and marks from CSV or XLSX
// sheets. Valid rows are saved and invalid ones reported with their line
// numbers; a sheet without a single valid row is rejected.
type UploadService struct {
	outcomes  outcomeSaver
	students  studentSaver
	marks     markSaver
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	maxRows   int
}

// NewUploadService constructs an UploadService. maxRows <= 0 disables the row limit.
func NewUploadService(outcomes outcomeSaver, students studentSaver, marks markSaver, metrics *MetricsService, maxRows int, validate *validator.Validate, logger *zap.Logger) *UploadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{
		outcomes:  outcomes,
		students:  students,
		marks:     marks,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		maxRows:   maxRows,
	}
}

// CourseOutcomes imports a sheet with code and description columns.
func (s *UploadService) CourseOutcomes(ctx context.Context, courseID, filename string, r io.Reader, actor *models.JWTClaims) (*dto.UploadResult, error) {
	table, err := s.parse(filename, r, columnCode, columnDescription)
	if err != nil {
		return nil, err
	}

	result := &dto.UploadResult{Total: len(table.Rows), Rejected: []dto.RowError{}}
	reqs := make([]dto.OutcomeRequest, 0, len(table.Rows))
	seen := make(map[string]int)
	for _, row := range table.Rows {
		req := dto.OutcomeRequest{Number: row.Get(columnCode), Description: row.Get(columnDescription)}
		if err := s.validator.Struct(req); err != nil {
			result.Rejected = append(result.Rejected, rowErrors(row.Line, err, map[string]string{"Number": columnCode, "Description": columnDescription})...)
			continue
		}
		if line, dup := seen[req.Number]; dup {
			result.Rejected = append(result.Rejected, dto.RowError{Line: row.Line, Column: columnCode, Message: fmt.Sprintf("duplicates line %d", line)})
			continue
		}
		seen[req.Number] = row.Line
		reqs = append(reqs, req)
	}
	if err := s.finish(ctx, "course_outcomes", result, len(reqs)); err != nil {
		return nil, err
	}

	if _, err := s.outcomes.SaveCourseOutcomes(ctx, courseID, reqs, actor); err != nil {
		return nil, err
	}
	result.Accepted = len(reqs)
	return result, nil
}

// Students imports a sheet with id and name columns. Optional section cells
// hold a section ID or name of the program; optional status cells hold
// ACTIVE or INACTIVE.
func (s *UploadService) Students(ctx context.Context, programID, filename string, r io.Reader, actor *models.JWTClaims) (*dto.UploadResult, error) {
	table, err := s.parse(filename, r, columnID, columnName)
	if err != nil {
		return nil, err
	}
	sections, err := s.students.Sections(ctx, programID, actor)
	if err != nil {
		return nil, err
	}
	byName := make(map[string][]string)
	for _, sec := range sections {
		key := strings.ToLower(sec.Name)
		byName[key] = append(byName[key], sec.ID)
	}

	result := &dto.UploadResult{Total: len(table.Rows), Rejected: []dto.RowError{}}
	reqs := make([]dto.StudentRequest, 0, len(table.Rows))
	seen := make(map[string]int)
	for _, row := range table.Rows {
		req := dto.StudentRequest{
			ID:     row.Get(columnID),
			Name:   row.Get(columnName),
			Status: models.StudentStatus(strings.ToUpper(row.Get(columnStatus))),
		}
		if err := s.validator.Struct(req); err != nil {
			result.Rejected = append(result.Rejected, rowErrors(row.Line, err, map[string]string{"ID": columnID, "Name": columnName, "Status": columnStatus})...)
			continue
		}
		if cell := row.Get(columnSection); cell != "" {
			sectionID, msg := resolveSection(cell, sections, byName)
			if msg != "" {
				result.Rejected = append(result.Rejected, dto.RowError{Line: row.Line, Column: columnSection, Message: msg})
				continue
			}
			req.SectionID = &sectionID
		}
		if line, dup := seen[req.ID]; dup {
			result.Rejected = append(result.Rejected, dto.RowError{Line: row.Line, Column: columnID, Message: fmt.Sprintf("duplicates line %d", line)})
			continue
		}
		seen[req.ID] = row.Line
		reqs = append(reqs, req)
	}
	if err := s.finish(ctx, "students", result, len(reqs)); err != nil {
		return nil, err
	}

	if _, err := s.students.Save(ctx, programID, reqs, actor); err != nil {
		return nil, err
	}
	result.Accepted = len(reqs)
	return result, nil
}

// Marks imports a sheet with a Student ID column and one column per question
// of the assessment. Blank, AB and - cells mark the student absent; columns
// that name no question are ignored.
func (s *UploadService) Marks(ctx context.Context, assessmentID, filename string, r io.Reader, actor *models.JWTClaims) (*dto.UploadResult, error) {
	table, err := s.parse(filename, r, columnStudentID)
	if err != nil {
		return nil, err
	}
	target, err := s.marks.Target(ctx, assessmentID, actor)
	if err != nil {
		return nil, err
	}
	var questions []models.Question
	for _, q := range target.Assessment.Questions {
		if table.HasColumn(q.Name) {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrUploadInvalid, "sheet has no column matching a question of the assessment")
	}

	result := &dto.UploadResult{Total: len(table.Rows), Rejected: []dto.RowError{}}
	entries := make([]dto.MarkEntry, 0, len(table.Rows))
	seen := make(map[string]int)
	for _, row := range table.Rows {
		entry, rowErr := markEntry(row, questions)
		if rowErr == nil {
			if err := target.Check(entry); err != nil {
				rowErr = &dto.RowError{Line: row.Line, Message: err.Error()}
				var fe *fieldError
				if errors.As(err, &fe) {
					rowErr.Column, rowErr.Message = fe.Field, fe.Message
					if fe.Field == "student_id" {
						rowErr.Column = columnStudentID
					}
				}
			}
		}
		if rowErr == nil {
			if line, dup := seen[entry.StudentID]; dup {
				rowErr = &dto.RowError{Line: row.Line, Column: columnStudentID, Message: fmt.Sprintf("duplicates line %d", line)}
			}
		}
		if rowErr != nil {
			result.Rejected = append(result.Rejected, *rowErr)
			continue
		}
		seen[entry.StudentID] = row.Line
		entries = append(entries, entry)
	}
	if err := s.finish(ctx, "marks", result, len(entries)); err != nil {
		return nil, err
	}

	if _, err := s.marks.Store(ctx, target, entries); err != nil {
		return nil, err
	}
	result.Accepted = len(entries)
	return result, nil
}

func (s *UploadService) parse(filename string, r io.Reader, required ...string) (*ingest.Table, error) {
	table, err := ingest.Parse(filename, r, s.maxRows)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrTooManyRows):
			return nil, appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status, err.Error())
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			return nil, appErrors.Wrap(err, appErrors.ErrUploadInvalid.Code, appErrors.ErrUploadInvalid.Status, "only .csv and .xlsx files are accepted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUploadInvalid.Code, appErrors.ErrUploadInvalid.Status, "failed to read spreadsheet")
	}
	for _, column := range required {
		if !table.HasColumn(column) {
			return nil, appErrors.Clone(appErrors.ErrUploadInvalid, fmt.Sprintf("missing column %q", column))
		}
	}
	if len(table.Rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrUploadInvalid, "spreadsheet has no data rows")
	}
	return table, nil
}

// finish records row counts and rejects a sheet with nothing to save.
func (s *UploadService) finish(ctx context.Context, kind string, result *dto.UploadResult, valid int) error {
	s.metrics.RecordUploadRows(kind, valid, len(result.Rejected))
	s.logger.Info("spreadsheet processed",
		zap.String("kind", kind),
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.Int("rows", result.Total),
		zap.Int("valid", valid),
		zap.Int("rejected", len(result.Rejected)),
	)
	if valid > 0 {
		return nil
	}
	problems := make([]string, 0, len(result.Rejected))
	for _, re := range result.Rejected {
		problems = append(problems, fmt.Sprintf("line %d: %s", re.Line, strings.TrimSpace(re.Column+" "+re.Message)))
	}
	return appErrors.UploadRows(problems)
}

func markEntry(row ingest.Row, questions []models.Question) (dto.MarkEntry, *dto.RowError) {
	entry := dto.MarkEntry{StudentID: row.Get(columnStudentID), Scores: make([]models.QuestionScore, 0, len(questions))}
	if entry.StudentID == "" {
		return entry, &dto.RowError{Line: row.Line, Column: columnStudentID, Message: "is required"}
	}
	for _, q := range questions {
		value, err := parseScore(row.Get(q.Name))
		if err != nil {
			return entry, &dto.RowError{Line: row.Line, Column: q.Name, Message: err.Error()}
		}
		entry.Scores = append(entry.Scores, models.QuestionScore{Question: q.Name, Value: value})
	}
	return entry, nil
}

// parseScore reads a numeric cell. Blank, AB and - mean absent.
func parseScore(cell string) (*float64, error) {
	switch strings.ToUpper(strings.TrimSpace(cell)) {
	case "", "AB", "A", "-":
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%q is not a number", cell)
	}
	return &v, nil
}

func resolveSection(cell string, sections map[string]models.Section, byName map[string][]string) (string, string) {
	if _, ok := sections[cell]; ok {
		return cell, ""
	}
	ids := byName[strings.ToLower(cell)]
	switch len(ids) {
	case 0:
		return "", fmt.Sprintf("section %q not found in program", cell)
	case 1:
		return ids[0], ""
	}
	return "", fmt.Sprintf("section name %q is ambiguous; use the section ID", cell)
}

// rowErrors flattens validator failures into per-column row errors. columns
// maps struct field names to sheet columns.
func rowErrors(line int, err error, columns map[string]string) []dto.RowError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []dto.RowError{{Line: line, Message: err.Error()}}
	}
	out := make([]dto.RowError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, dto.RowError{Line: line, Column: columns[fe.Field()], Message: describeTag(fe)})
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "is longer than " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "failed " + fe.Tag() + " validation"
}
