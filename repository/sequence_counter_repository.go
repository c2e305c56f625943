// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/utils"
	"gorm.io/gorm"
)

// incrementCounterSQL creates the counter at 1 or bumps it by one, but only while it is below
// the bound. ON CONFLICT takes the row lock, so concurrent callers on the same pair queue up
// behind each other and callers on other pairs are untouched. No row is returned when the
// counter is already at the bound.
const incrementCounterSQL = `
INSERT INTO sequence_counters (jurisdiction_id, record_type, last_issued, created_at, updated_at)
VALUES (@jurisdiction_id, @record_type, 1, @now, @now)
ON CONFLICT (jurisdiction_id, record_type)
DO UPDATE SET last_issued = sequence_counters.last_issued + 1, updated_at = EXCLUDED.updated_at
WHERE sequence_counters.last_issued < @max
RETURNING last_issued`

// raiseCounterSQL moves a counter up to @value and never down
const raiseCounterSQL = `
INSERT INTO sequence_counters (jurisdiction_id, record_type, last_issued, created_at, updated_at)
VALUES (@jurisdiction_id, @record_type, @value, @now, @now)
ON CONFLICT (jurisdiction_id, record_type)
DO UPDATE SET last_issued = EXCLUDED.last_issued, updated_at = EXCLUDED.updated_at
WHERE sequence_counters.last_issued < EXCLUDED.last_issued
RETURNING last_issued`

// SequenceCounterRepositoryImpl implements SequenceCounterRepository on PostgreSQL
type SequenceCounterRepositoryImpl struct {
	db *gorm.DB
}

// NewSequenceCounterRepository creates a new sequence counter repository
func NewSequenceCounterRepository(db *gorm.DB) SequenceCounterRepository {
	return &SequenceCounterRepositoryImpl{db: db}
}

// IncrementAndGet atomically issues the next number for the pair.
// It joins the transaction carried by ctx, if any, so that the caller's writes and the
// increment commit together.
func (r *SequenceCounterRepositoryImpl) IncrementAndGet(ctx context.Context, jurisdictionID uint, recordType string, max int64) (int64, error) {
	if max < 1 {
		return 0, fmt.Errorf("invalid sequence bound %d", max)
	}
	db := dbFromContext(ctx, r.db)

	var next int64
	result := db.Raw(incrementCounterSQL, map[string]any{
		"jurisdiction_id": jurisdictionID,
		"record_type":     recordType,
		"now":             utils.UTCNow(),
		"max":             max,
	}).Scan(&next)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to increment sequence counter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrSequenceExhausted
	}
	return next, nil
}

// Current returns the last issued number for the pair, 0 if nothing was issued yet
func (r *SequenceCounterRepositoryImpl) Current(ctx context.Context, jurisdictionID uint, recordType string) (int64, error) {
	db := dbFromContext(ctx, r.db)

	var counter models.SequenceCounter
	err := db.Where("jurisdiction_id = ? AND record_type = ?", jurisdictionID, recordType).
		Take(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return counter.LastIssued, nil
}

// All returns every counter ordered by jurisdiction and record type
func (r *SequenceCounterRepositoryImpl) All(ctx context.Context) ([]*models.SequenceCounter, error) {
	return r.ByFilter(ctx, models.SequenceCounterFilter{}, "", 0, 0)
}

// RaiseTo moves the counter up to value. It reports false when the counter was already at
// or above value.
func (r *SequenceCounterRepositoryImpl) RaiseTo(ctx context.Context, jurisdictionID uint, recordType string, value int64) (bool, error) {
	if value < 0 {
		return false, fmt.Errorf("invalid counter value %d", value)
	}
	// a missing row already reads as 0
	if value == 0 {
		return false, nil
	}
	db := dbFromContext(ctx, r.db)

	var raised int64
	result := db.Raw(raiseCounterSQL, map[string]any{
		"jurisdiction_id": jurisdictionID,
		"record_type":     recordType,
		"value":           value,
		"now":             utils.UTCNow(),
	}).Scan(&raised)
	if result.Error != nil {
		return false, fmt.Errorf("failed to raise sequence counter: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *SequenceCounterRepositoryImpl) applyFilter(query *gorm.DB, filter models.SequenceCounterFilter) *gorm.DB {
	if filter.JurisdictionID != nil {
		query = query.Where("jurisdiction_id = ?", *filter.JurisdictionID)
	}
	if filter.RecordType != nil {
		query = query.Where("record_type = ?", *filter.RecordType)
	}
	if filter.MinLastIssued != nil {
		query = query.Where("last_issued >= ?", *filter.MinLastIssued)
	}
	return query
}

// ByFilter retrieves counters based on filter criteria
func (r *SequenceCounterRepositoryImpl) ByFilter(ctx context.Context, filter models.SequenceCounterFilter, orderBy string, limit, offset int) ([]*models.SequenceCounter, error) {
	db := dbFromContext(ctx, r.db)
	query := r.applyFilter(db.Model(&models.SequenceCounter{}), filter)

	if orderBy == "" {
		orderBy = "jurisdiction_id ASC, record_type ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var counters []*models.SequenceCounter
	if err := query.Find(&counters).Error; err != nil {
		return nil, err
	}
	return counters, nil
}

// Count returns the number of counters matching the filter
func (r *SequenceCounterRepositoryImpl) Count(ctx context.Context, filter models.SequenceCounterFilter) (int64, error) {
	db := dbFromContext(ctx, r.db)
	query := r.applyFilter(db.Model(&models.SequenceCounter{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
