package businessflow

import (
	"context"
	"math"
	"time"

	"github.com/amirphl/civic-portal/app/dto"
	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/utils"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ClientMetadata holds client information attached to audit records
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// requestIDFrom prefers the metadata request ID and falls back to the context
func requestIDFrom(ctx context.Context, metadata *ClientMetadata) *string {
	id := ""
	if metadata != nil {
		id = metadata.RequestID
	}
	if id == "" {
		id = utils.RequestIDFromContext(ctx)
	}
	if id == "" {
		return nil
	}
	return &id
}

func normalizePage(page, limit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultPageLimit
	}
	if page < 1 {
		return 0, 0, ErrInvalidPage
	}
	if limit < 1 || limit > maxPageLimit {
		return 0, 0, ErrInvalidLimit
	}
	return page, limit, nil
}

func paginationInfo(total int64, page, limit int) dto.PaginationInfo {
	return dto.PaginationInfo{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// ToJurisdictionDTO converts a jurisdiction model to its public view
func ToJurisdictionDTO(j *models.Jurisdiction) dto.JurisdictionDTO {
	return dto.JurisdictionDTO{
		UUID:       j.UUID.String(),
		Identifier: j.Identifier,
		Name:       j.Name,
		IsActive:   utils.IsTrue(j.IsActive),
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
}

// ToProjectDTO converts a project model to its public view
func ToProjectDTO(p *models.Project, jurisdictionUUID string) dto.ProjectDTO {
	return dto.ProjectDTO{
		UUID:             p.UUID.String(),
		JurisdictionUUID: jurisdictionUUID,
		Code:             p.Code,
		Title:            p.Title,
		Description:      p.Description,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
}
