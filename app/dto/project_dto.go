package dto

// AllocateCodeRequest asks for the next code of a record type within a jurisdiction
type AllocateCodeRequest struct {
	JurisdictionUUID string `json:"-"`
	RecordType       string `json:"record_type" validate:"required,record_type"`
}

// AllocateCodeResponse carries an issued code
type AllocateCodeResponse struct {
	JurisdictionUUID string `json:"jurisdiction_uuid"`
	RecordType       string `json:"record_type"`
	Code             string `json:"code"`
}

// CreateProjectRequest represents the payload for creating a project
type CreateProjectRequest struct {
	JurisdictionUUID string  `json:"-"`
	Title            string  `json:"title" validate:"required,min=1,max=255"`
	Description      *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	CreatedBy        *uint   `json:"-"`
}

// ProjectDTO is the public view of a project
type ProjectDTO struct {
	UUID             string  `json:"uuid"`
	JurisdictionUUID string  `json:"jurisdiction_uuid"`
	Code             string  `json:"code"`
	Title            string  `json:"title"`
	Description      *string `json:"description,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// ListProjectsRequest represents a paginated project listing for one jurisdiction
type ListProjectsRequest struct {
	JurisdictionUUID string `json:"-"`
	Page             int    `json:"page"`
	Limit            int    `json:"limit"`
}

// ListProjectsResponse represents a page of projects
type ListProjectsResponse struct {
	Items      []ProjectDTO   `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}
