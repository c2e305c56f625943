package models

import "time"

// CodeAllocation is an append-only record of every issued code.
// The same code string may exist once per record type.
// Table: code_allocations
type CodeAllocation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	JurisdictionID uint      `gorm:"not null;index:idx_code_allocations_pair,priority:1" json:"jurisdiction_id"`
	RecordType     string    `gorm:"size:32;not null;index:idx_code_allocations_pair,priority:2;uniqueIndex:uk_code_allocations_type_code,priority:1" json:"record_type"`
	Sequence       int64     `gorm:"not null" json:"sequence"`
	Code           string    `gorm:"size:32;not null;uniqueIndex:uk_code_allocations_type_code,priority:2" json:"code"`
	RequestID      *string   `gorm:"size:64" json:"request_id,omitempty"`
	CreatedAt      time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_code_allocations_created_at" json:"created_at"`
}

func (CodeAllocation) TableName() string {
	return "code_allocations"
}

// CodeAllocationFilter represents filter criteria for allocation history queries
type CodeAllocationFilter struct {
	JurisdictionID *uint
	RecordType     *string
	Code           *string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}

// AllModels lists every table owned by the service, in dependency order
func AllModels() []any {
	return []any{
		&Jurisdiction{},
		&SequenceCounter{},
		&Project{},
		&CodeAllocation{},
	}
}
