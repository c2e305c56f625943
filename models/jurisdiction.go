// Package models contains domain entities and persistence models for the portal
package models

import (
	"time"

	"github.com/google/uuid"
)

// Jurisdiction represents an administrative region (e.g. a Regional Democratic Council)
// that owns its own code namespace.
// Table: jurisdictions
// Identifier is unique and immutable after creation; repositories never update it.
type Jurisdiction struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_jurisdictions_uuid" json:"uuid"`

	Identifier string `gorm:"size:16;not null;uniqueIndex:uk_jurisdictions_identifier" json:"identifier"`
	Name       string `gorm:"size:255;not null" json:"name"`

	IsActive  *bool     `gorm:"default:true;index:idx_jurisdictions_is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_jurisdictions_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Jurisdiction) TableName() string {
	return "jurisdictions"
}

// JurisdictionFilter represents filter criteria for jurisdiction queries
type JurisdictionFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Identifier    *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
