package dto

// RowError describes why one spreadsheet row was rejected. Line is the 1-based
// line in the uploaded file, header included.
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// UploadResult summarises a spreadsheet import.
type UploadResult struct {
	Total    int        `json:"total"`
	Accepted int        `json:"accepted"`
	Rejected []RowError `json:"rejected"`
}
