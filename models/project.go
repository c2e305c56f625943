package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a jurisdiction-scoped record whose Code is allocated at creation
// Table: projects
type Project struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_projects_uuid" json:"uuid"`
	JurisdictionID uint      `gorm:"not null;index:idx_projects_jurisdiction_id" json:"jurisdiction_id"`
	Code           string    `gorm:"size:32;not null;uniqueIndex:uk_projects_code" json:"code"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Description    *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedBy      *uint     `json:"created_by,omitempty"`
	CreatedAt      time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_projects_created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Jurisdiction *Jurisdiction `gorm:"foreignKey:JurisdictionID;references:ID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectFilter represents filter criteria for project queries
type ProjectFilter struct {
	ID             *uint
	UUID           *uuid.UUID
	JurisdictionID *uint
	Code           *string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
