package dto

// OutcomeRequest creates or edits a course or program outcome.
type OutcomeRequest struct {
	Number      string `json:"number" validate:"required,max=16"`
	Description string `json:"description" validate:"required"`
}

// MappingEntry sets one cell of the CO-PO matrix. Level 0 clears the cell.
type MappingEntry struct {
	COID  string `json:"co_id" validate:"required"`
	POID  string `json:"po_id" validate:"required"`
	Level int    `json:"level" validate:"min=0,max=3"`
}

// ReplaceMappingsRequest replaces every mapping of a course.
type ReplaceMappingsRequest struct {
	Mappings []MappingEntry `json:"mappings" validate:"dive"`
}
