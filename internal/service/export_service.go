package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/attainment"
	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/export"
	"github.com/noah-isme/obe-attainment-api/pkg/middleware/requestid"
)

type courseReporter interface {
	CourseAttainment(ctx context.Context, courseID string, query dto.AttainmentQuery, actor *models.JWTClaims) (*attainment.CourseReport, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(reportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (reportID, relPath string, expiresAt time.Time, err error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled   bool
	APIPrefix string
	Retention time.Duration
}

// ExportService renders course attainment reports to CSV or PDF and hands out
// signed download links.
type ExportService struct {
	reports   courseReporter
	storage   fileStorage
	signer    urlSigner
	csv       datasetRenderer
	pdf       datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(reports courseReporter, storage fileStorage, signer urlSigner, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 72 * time.Hour
	}
	return &ExportService{
		reports:   reports,
		storage:   storage,
		signer:    signer,
		csv:       &export.CSVExporter{WithNotes: true},
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Export renders the caller's view of a course's attainment and stores it.
func (s *ExportService) Export(ctx context.Context, req dto.AttainmentReportRequest, actor *models.JWTClaims) (*dto.AttainmentReportResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "report exports are disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}
	s.cleanup()

	report, _, err := s.reports.CourseAttainment(ctx, req.CourseID, dto.AttainmentQuery{SectionID: req.SectionID}, actor)
	if err != nil {
		return nil, err
	}

	dataset := courseDataset(report)
	var payload []byte
	switch req.Format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	reportID := uuid.NewString()
	relPath, err := s.storage.Save(reportFilename(report, reportID, req.Format), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(reportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign report link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("attainment report exported",
		zap.String("report_id", reportID),
		zap.String("course_id", report.CourseID),
		zap.String("format", req.Format),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return &dto.AttainmentReportResponse{
		ReportID:  reportID,
		Format:    req.Format,
		URL:       prefix + "/reports/download?token=" + url.QueryEscape(token),
		ExpiresAt: expiresAt,
	}, nil
}

// Open resolves a signed token to the stored file and its download name.
func (s *ExportService) Open(token string) (*os.File, string, error) {
	if !s.cfg.Enabled {
		return nil, "", appErrors.Clone(appErrors.ErrFeatureDisabled, "report exports are disabled")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download link")
	}
	f, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file no longer exists")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report")
	}
	return f, filepath.Base(relPath), nil
}

func (s *ExportService) cleanup() {
	removed, err := s.storage.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(removed)))
	}
}

// courseDataset lays out one row per student with a column per CO. The CO
// level summary goes into the notes.
func courseDataset(report *attainment.CourseReport) export.Dataset {
	headers := []string{"Student ID", "Name"}
	for _, o := range report.Outcomes {
		headers = append(headers, o.Number+" (%)")
	}

	scope := "all sections"
	if len(report.SectionIDs) > 0 {
		scope = "sections " + strings.Join(report.SectionIDs, ", ")
	}
	notes := []string{fmt.Sprintf("Target %g%%, %d students in scope (%s)", report.Target, report.ScopeSize, scope)}
	for _, o := range report.Outcomes {
		notes = append(notes, fmt.Sprintf("%s: %d/%d students (%.2f%%) meet target, level %d, average %.2f%%",
			o.Number, o.StudentsMeetingTarget, o.ScopeSize, o.PercentageMeetingTarget, o.Level, o.Average))
	}
	for _, w := range report.Warnings {
		notes = append(notes, "Warning: "+w)
	}

	rows := make([]map[string]string, 0, len(report.Students))
	for _, st := range report.Students {
		row := map[string]string{"Student ID": st.StudentID, "Name": st.Name}
		for _, o := range report.Outcomes {
			row[o.Number+" (%)"] = fmt.Sprintf("%.2f", st.Percentages[o.COID])
		}
		rows = append(rows, row)
	}

	return export.Dataset{
		Title:   fmt.Sprintf("CO Attainment %s %s", report.CourseCode, report.CourseName),
		Notes:   notes,
		Headers: headers,
		Rows:    rows,
	}
}

func reportFilename(report *attainment.CourseReport, reportID, format string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("co_attainment_%s_%s_%s.%s", sanitizeFilename(report.CourseCode), timestamp, reportID[:8], format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
