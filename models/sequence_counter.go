package models

import "time"

// SequenceCounter stores the last issued number for a (jurisdiction, record type) pair.
// LastIssued starts at 0 and only ever increases.
type SequenceCounter struct {
	JurisdictionID uint      `gorm:"primaryKey;autoIncrement:false" json:"jurisdiction_id"`
	RecordType     string    `gorm:"primaryKey;size:32" json:"record_type"`
	LastIssued     int64     `gorm:"not null;default:0;check:chk_sequence_counters_last_issued,last_issued >= 0" json:"last_issued"`
	CreatedAt      time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt      time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Jurisdiction *Jurisdiction `gorm:"foreignKey:JurisdictionID;references:ID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (SequenceCounter) TableName() string { return "sequence_counters" }

// SequenceCounterFilter represents filter criteria for counter queries
type SequenceCounterFilter struct {
	JurisdictionID *uint
	RecordType     *string
	MinLastIssued  *int64
}
