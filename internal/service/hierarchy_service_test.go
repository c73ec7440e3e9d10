package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type mockHierarchyRepo struct {
	colleges map[string]models.College
	programs map[string]models.Program
	batches  map[string]models.Batch
	sections []models.Section
}

func newMockHierarchyRepo() *mockHierarchyRepo {
	snap := serviceSnapshot()
	repo := &mockHierarchyRepo{
		colleges: make(map[string]models.College),
		programs: make(map[string]models.Program),
		batches:  make(map[string]models.Batch),
		sections: snap.Sections,
	}
	for _, c := range snap.Colleges {
		repo.colleges[c.ID] = c
	}
	for _, p := range snap.Programs {
		repo.programs[p.ID] = p
	}
	for _, b := range snap.Batches {
		repo.batches[b.ID] = b
	}
	return repo
}

func (m *mockHierarchyRepo) ListColleges(ctx context.Context) ([]models.College, error) {
	out := make([]models.College, 0, len(m.colleges))
	for _, c := range m.colleges {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockHierarchyRepo) FindCollege(ctx context.Context, id string) (*models.College, error) {
	if c, ok := m.colleges[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHierarchyRepo) CreateCollege(ctx context.Context, college *models.College) error {
	college.ID = "col-new"
	m.colleges[college.ID] = *college
	return nil
}

func (m *mockHierarchyRepo) ListPrograms(ctx context.Context, collegeID string) ([]models.Program, error) {
	var out []models.Program
	for _, p := range m.programs {
		if p.CollegeID == collegeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockHierarchyRepo) FindProgram(ctx context.Context, id string) (*models.Program, error) {
	if p, ok := m.programs[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHierarchyRepo) CreateProgram(ctx context.Context, program *models.Program) error {
	program.ID = "prog-new"
	m.programs[program.ID] = *program
	return nil
}

func (m *mockHierarchyRepo) ListBatches(ctx context.Context, programID string) ([]models.Batch, error) {
	var out []models.Batch
	for _, b := range m.batches {
		if b.ProgramID == programID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockHierarchyRepo) FindBatch(ctx context.Context, id string) (*models.Batch, error) {
	if b, ok := m.batches[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHierarchyRepo) CreateBatch(ctx context.Context, batch *models.Batch) error {
	batch.ID = "batch-new"
	m.batches[batch.ID] = *batch
	return nil
}

func (m *mockHierarchyRepo) ListSections(ctx context.Context, programID, batchID string) ([]models.Section, error) {
	var out []models.Section
	for _, s := range m.sections {
		if s.ProgramID == programID && (batchID == "" || s.BatchID == batchID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockHierarchyRepo) FindSection(ctx context.Context, id string) (*models.Section, error) {
	for _, s := range m.sections {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockHierarchyRepo) CreateSection(ctx context.Context, section *models.Section) error {
	section.ID = "sec-new"
	m.sections = append(m.sections, *section)
	return nil
}

func TestHierarchyServiceBatchYears(t *testing.T) {
	svc := NewHierarchyService(newMockHierarchyRepo(), nil, nil)

	batches, err := svc.ListBatches(context.Background(), "prog-1")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 2026, batches[0].Years.EndYear)
	assert.Equal(t, "2022-2026", batches[0].Years.Label)

	created, err := svc.CreateBatch(context.Background(), "prog-2", dto.BatchRequest{StartYear: 2024})
	require.NoError(t, err)
	assert.Equal(t, "2024-2027", created.Years.Label)
}

func TestHierarchyServiceCreateChain(t *testing.T) {
	svc := NewHierarchyService(newMockHierarchyRepo(), nil, nil)
	ctx := context.Background()

	college, err := svc.CreateCollege(ctx, dto.CollegeRequest{Name: "Science"})
	require.NoError(t, err)

	program, err := svc.CreateProgram(ctx, college.ID, dto.ProgramRequest{Name: "B.Sc Physics", DurationYears: 3})
	require.NoError(t, err)
	assert.Equal(t, college.ID, program.CollegeID)

	programs, err := svc.ListPrograms(ctx, college.ID)
	require.NoError(t, err)
	assert.Len(t, programs, 1)

	section, err := svc.CreateSection(ctx, "prog-1", dto.SectionRequest{BatchID: "batch-1", Name: "C"})
	require.NoError(t, err)
	assert.Equal(t, "batch-1", section.BatchID)

	sections, err := svc.ListSections(ctx, "prog-1", "batch-1")
	require.NoError(t, err)
	assert.Len(t, sections, 3)
}

func TestHierarchyServiceRejects(t *testing.T) {
	svc := NewHierarchyService(newMockHierarchyRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.CreateProgram(ctx, "col-404", dto.ProgramRequest{Name: "X", DurationYears: 4})
	assert.Equal(t, appErrors.ErrNotFound.Code, appCode(err))

	_, err = svc.CreateProgram(ctx, "col-1", dto.ProgramRequest{Name: "X", DurationYears: 0})
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	_, err = svc.CreateSection(ctx, "prog-1", dto.SectionRequest{BatchID: "batch-2", Name: "Z"})
	assert.Equal(t, appErrors.ErrValidation.Code, appCode(err))

	_, err = svc.ListBatches(ctx, "prog-404")
	assert.Equal(t, appErrors.ErrNotFound.Code, appCode(err))

	_, err = svc.FindSection(ctx, "sec-404")
	assert.Equal(t, appErrors.ErrNotFound.Code, appCode(err))
}
