package attainment

import "github.com/noah-isme/obe-attainment-api/internal/models"

// Weights blend direct and indirect attainment. IndirectScores holds survey
// scores per CO id; COs without one use DefaultIndirect.
type Weights struct {
	Direct          float64
	Indirect        float64
	DefaultIndirect float64
	IndirectScores  map[string]float64
}

// DefaultWeights are the system-wide 90/10 blend with a 2.5 survey placeholder.
var DefaultWeights = Weights{Direct: 0.9, Indirect: 0.1, DefaultIndirect: 2.5}

func (w Weights) indirectFor(coID string) float64 {
	if v, ok := w.IndirectScores[coID]; ok {
		return v
	}
	return w.DefaultIndirect
}

// Warnings reports weight combinations that do not sum to one.
func (w Weights) Warnings() []string {
	if sum := w.Direct + w.Indirect; sum < 0.999999 || sum > 1.000001 {
		return []string{"direct and indirect weights do not sum to 1"}
	}
	return nil
}

// Contribution is one CO-PO mapping feeding a PO's direct attainment.
type Contribution struct {
	CourseID     string  `json:"course_id"`
	COID         string  `json:"co_id"`
	MappingLevel int     `json:"mapping_level"`
	DirectLevel  int     `json:"direct_level"`
	COFinal      float64 `json:"co_final"`
}

// POAttainment is a program outcome's attainment on the 0-3 scale.
type POAttainment struct {
	POID          string         `json:"po_id"`
	Number        string         `json:"number"`
	Direct        float64        `json:"direct"`
	Indirect      float64        `json:"indirect"`
	Final         float64        `json:"final"`
	Percentage    float64        `json:"percentage"`
	MappingCount  int            `json:"mapping_count"`
	Contributions []Contribution `json:"contributions"`
}

// programCalc memoises per-CO final scores while evaluating several POs.
type programCalc struct {
	snap      *models.Snapshot
	programID string
	weights   Weights
	idx       marksIndex
	courses   map[string]models.Course
	scopes    map[string][]models.Student
	levels    map[string]int
}

func newProgramCalc(snap *models.Snapshot, programID string, weights Weights) *programCalc {
	pc := &programCalc{
		snap:      snap,
		programID: programID,
		weights:   weights,
		idx:       indexMarks(snap),
		courses:   make(map[string]models.Course),
		scopes:    make(map[string][]models.Student),
		levels:    make(map[string]int),
	}
	for _, c := range snap.Courses {
		if c.ProgramID == programID {
			pc.courses[c.ID] = c
		}
	}
	return pc
}

func (pc *programCalc) directLevel(course models.Course, coID string) int {
	if lvl, ok := pc.levels[coID]; ok {
		return lvl
	}
	scope, ok := pc.scopes[course.ID]
	if !ok {
		scope = ScopeStudents(pc.snap, course.ID)
		pc.scopes[course.ID] = scope
	}
	lvl := courseCOLevel(pc.idx, questionsFor(pc.snap, coID, course.ID), scope, course).Level
	pc.levels[coID] = lvl
	return lvl
}

func (pc *programCalc) po(po models.ProgramOutcome) POAttainment {
	result := POAttainment{POID: po.ID, Number: po.Number, Indirect: pc.weights.DefaultIndirect}
	var weighted, levelSum float64
	for _, m := range pc.snap.Mappings {
		if m.POID != po.ID || m.Level <= 0 {
			continue
		}
		course, ok := pc.courses[m.CourseID]
		if !ok {
			continue
		}
		direct := pc.directLevel(course, m.COID)
		coFinal := pc.weights.Direct*float64(direct) + pc.weights.Indirect*pc.weights.indirectFor(m.COID)
		weighted += coFinal * float64(m.Level)
		levelSum += float64(m.Level)
		result.MappingCount++
		result.Contributions = append(result.Contributions, Contribution{
			CourseID:     m.CourseID,
			COID:         m.COID,
			MappingLevel: m.Level,
			DirectLevel:  direct,
			COFinal:      coFinal,
		})
	}
	if levelSum > 0 {
		result.Direct = weighted / levelSum
	}
	result.Final = pc.weights.Direct*result.Direct + pc.weights.Indirect*pc.weights.DefaultIndirect
	result.Percentage = result.Final / MaxLevel * 100
	return result
}

// ProgramPOAttainment computes the level-weighted attainment of po over every
// CO-PO mapping whose course belongs to the program. Each CO contributes
// Direct*directLevel + Indirect*surveyScore; a PO without mappings has a
// direct attainment of 0.
func ProgramPOAttainment(snap *models.Snapshot, po models.ProgramOutcome, programID string, weights Weights) POAttainment {
	return newProgramCalc(snap, programID, weights).po(po)
}

// ProgramAttainment evaluates every PO of the program in stored order.
func ProgramAttainment(snap *models.Snapshot, programID string, weights Weights) []POAttainment {
	pc := newProgramCalc(snap, programID, weights)
	pos := snap.ProgramOutcomesOf(programID)
	out := make([]POAttainment, 0, len(pos))
	for _, po := range pos {
		out = append(out, pc.po(po))
	}
	return out
}
