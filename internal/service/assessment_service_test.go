package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type mockAssessmentRepo struct {
	created []models.Assessment
	deleted []string
}

func (m *mockAssessmentRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Assessment, error) {
	return m.created, nil
}

func (m *mockAssessmentRepo) Create(ctx context.Context, assessment *models.Assessment) error {
	assessment.ID = "a-new"
	m.created = append(m.created, *assessment)
	return nil
}

func (m *mockAssessmentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockMarkRepo struct {
	saved []models.Mark
}

func (m *mockMarkRepo) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Mark, error) {
	return m.saved, nil
}

func (m *mockMarkRepo) BulkUpsert(ctx context.Context, marks []models.Mark) error {
	m.saved = append(m.saved, marks...)
	return nil
}

func newTestAssessmentService() (*AssessmentService, *mockAssessmentRepo, *mockMarkRepo) {
	assessments := &mockAssessmentRepo{}
	marks := &mockMarkRepo{}
	svc := NewAssessmentService(assessments, marks, newTestSnapshots(serviceSnapshot()), newMemoryCache(), nil, nil)
	return svc, assessments, marks
}

func TestAssessmentServiceCreate(t *testing.T) {
	svc, repo, _ := newTestAssessmentService()

	assessment, err := svc.Create(context.Background(), "crs-1", dto.AssessmentRequest{
		SectionID: strPtr("sec-a"),
		Name:      "Quiz 2",
		Type:      models.AssessmentInternal,
		Questions: []models.Question{{Name: "Q1", MaxMarks: 5, COIDs: []string{"co-1"}}, {Name: "Q2", MaxMarks: 5}},
	}, claimsFor("t2"))
	require.NoError(t, err)
	assert.Equal(t, "a-new", assessment.ID)
	require.Len(t, repo.created, 1)
	assert.Len(t, repo.created[0].Questions, 2)
}

func TestAssessmentServiceCreateRejects(t *testing.T) {
	svc, repo, _ := newTestAssessmentService()
	ctx := context.Background()
	base := func() dto.AssessmentRequest {
		return dto.AssessmentRequest{Name: "End term", Type: models.AssessmentExternal, Questions: []models.Question{{Name: "Q1", MaxMarks: 50}}}
	}

	req := base()
	req.Questions = append(req.Questions, models.Question{Name: "Q1", MaxMarks: 10})
	_, err := svc.Create(ctx, "crs-1", req, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	req = base()
	req.Questions[0].COIDs = []string{"co-elsewhere"}
	_, err = svc.Create(ctx, "crs-1", req, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	req = base()
	req.Questions[0].MaxMarks = 0
	_, err = svc.Create(ctx, "crs-1", req, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	req = base()
	req.SectionID = strPtr("sec-b")
	_, err = svc.Create(ctx, "crs-1", req, claimsFor("t2"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appCode(err))

	_, err = svc.Create(ctx, "crs-1", base(), claimsFor("co1"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appCode(err))

	assert.Empty(t, repo.created)
}

func TestMarkTargetCheck(t *testing.T) {
	svc, _, _ := newTestAssessmentService()

	target, err := svc.Target(context.Background(), "a1", claimsFor("admin"))
	require.NoError(t, err)

	assert.NoError(t, target.Check(dto.MarkEntry{StudentID: "s1", Scores: []models.QuestionScore{{Question: "Q1", Value: floatPtr(20)}}}))
	assert.NoError(t, target.Check(dto.MarkEntry{StudentID: "s1", Scores: []models.QuestionScore{{Question: "Q1"}}}))
	assert.Error(t, target.Check(dto.MarkEntry{StudentID: "s1", Scores: []models.QuestionScore{{Question: "Q1", Value: floatPtr(21)}}}))
	assert.Error(t, target.Check(dto.MarkEntry{StudentID: "s1", Scores: []models.QuestionScore{{Question: "Q1", Value: floatPtr(-1)}}}))
	assert.Error(t, target.Check(dto.MarkEntry{StudentID: "s1", Scores: []models.QuestionScore{{Question: "Q9", Value: floatPtr(1)}}}))
	assert.Error(t, target.Check(dto.MarkEntry{StudentID: "s7"}))
	assert.Error(t, target.Check(dto.MarkEntry{StudentID: "s1", Scores: []models.QuestionScore{{Question: "Q1", Value: floatPtr(math.NaN())}}}))
	assert.Error(t, target.Check(dto.MarkEntry{StudentID: "s1", Scores: []models.QuestionScore{{Question: "Q1", Value: floatPtr(math.Inf(1))}}}))
}

func TestMarkTargetForSectionAssessment(t *testing.T) {
	svc, _, _ := newTestAssessmentService()

	target, err := svc.Target(context.Background(), "a2", claimsFor("t2"))
	require.NoError(t, err)
	assert.NoError(t, target.Check(dto.MarkEntry{StudentID: "s1"}))
	assert.Error(t, target.Check(dto.MarkEntry{StudentID: "s4"}))

	_, err = svc.Target(context.Background(), "a2", claimsFor("t1"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appCode(err))
}

func TestSaveMarks(t *testing.T) {
	svc, _, marks := newTestAssessmentService()
	ctx := context.Background()

	saved, err := svc.SaveMarks(ctx, "a1", dto.SaveMarksRequest{Marks: []dto.MarkEntry{
		{StudentID: "s1", Scores: []models.QuestionScore{{Question: "Q1", Value: floatPtr(19)}}},
		{StudentID: "s4", Scores: []models.QuestionScore{{Question: "Q1"}}},
	}}, claimsFor("t1"))
	require.NoError(t, err)
	assert.Len(t, saved, 2)
	assert.Len(t, marks.saved, 2)
	assert.Equal(t, "a1", marks.saved[0].AssessmentID)

	_, err = svc.SaveMarks(ctx, "a1", dto.SaveMarksRequest{Marks: []dto.MarkEntry{
		{StudentID: "s1", Scores: []models.QuestionScore{{Question: "Q1", Value: floatPtr(25)}}},
	}}, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	_, err = svc.SaveMarks(ctx, "a1", dto.SaveMarksRequest{Marks: []dto.MarkEntry{{StudentID: "s1"}, {StudentID: "s1"}}}, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	_, err = svc.SaveMarks(ctx, "a-missing", dto.SaveMarksRequest{Marks: []dto.MarkEntry{{StudentID: "s1"}}}, claimsFor("admin"))
	assert.Equal(t, appErrors.ErrNotFound.Code, appCode(err))
	assert.Len(t, marks.saved, 2)
}

func TestAssessmentDelete(t *testing.T) {
	svc, repo, _ := newTestAssessmentService()

	require.NoError(t, svc.Delete(context.Background(), "a1", claimsFor("admin")))
	assert.Equal(t, []string{"a1"}, repo.deleted)

	err := svc.Delete(context.Background(), "a1", claimsFor("uni"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appCode(err))
}
