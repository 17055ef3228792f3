package dto

// SubmitResponse echoes the stored-file references for a successful
// submission, keyed by file field name.
type SubmitResponse struct {
	Success bool              `json:"success"`
	Folder  string            `json:"folder"`
	Links   map[string]string `json:"links"`
}

// SubmissionListQuery binds the staff listing parameters.
type SubmissionListQuery struct {
	Search      string `form:"search"`
	DegreeLevel string `form:"degreeLevel"`
	Page        int    `form:"page"`
	PageSize    int    `form:"pageSize"`
}

// ExportQuery selects the export rendering.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
