package dto

// CreateJurisdictionRequest represents the payload for registering a jurisdiction
type CreateJurisdictionRequest struct {
	Identifier string `json:"identifier" validate:"required,jurisdiction_identifier"`
	Name       string `json:"name" validate:"required,min=2,max=255"`
}

// UpdateJurisdictionRequest changes mutable jurisdiction fields. The identifier is never updatable.
type UpdateJurisdictionRequest struct {
	UUID     string  `json:"-"`
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// JurisdictionDTO is the public view of a jurisdiction
type JurisdictionDTO struct {
	UUID       string `json:"uuid"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// ListJurisdictionsRequest represents a paginated jurisdiction listing
type ListJurisdictionsRequest struct {
	Page     int   `json:"page"`
	Limit    int   `json:"limit"`
	IsActive *bool `json:"is_active,omitempty"`
}

// ListJurisdictionsResponse represents a page of jurisdictions
type ListJurisdictionsResponse struct {
	Items      []JurisdictionDTO `json:"items"`
	Pagination PaginationInfo    `json:"pagination"`
}
