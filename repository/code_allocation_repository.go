// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/civic-portal/models"
	"gorm.io/gorm"
)

// CodeAllocationRepositoryImpl implements CodeAllocationRepository interface
type CodeAllocationRepositoryImpl struct {
	*BaseRepository[models.CodeAllocation, models.CodeAllocationFilter]
}

// NewCodeAllocationRepository creates a new allocation history repository
func NewCodeAllocationRepository(db *gorm.DB) CodeAllocationRepository {
	return &CodeAllocationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CodeAllocation, models.CodeAllocationFilter](db),
	}
}

func (r *CodeAllocationRepositoryImpl) applyFilter(query *gorm.DB, filter models.CodeAllocationFilter) *gorm.DB {
	if filter.JurisdictionID != nil {
		query = query.Where("jurisdiction_id = ?", *filter.JurisdictionID)
	}
	if filter.RecordType != nil {
		query = query.Where("record_type = ?", *filter.RecordType)
	}
	if filter.Code != nil {
		query = query.Where("code = ?", *filter.Code)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves allocation history entries based on filter criteria
func (r *CodeAllocationRepositoryImpl) ByFilter(ctx context.Context, filter models.CodeAllocationFilter, orderBy string, limit, offset int) ([]*models.CodeAllocation, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CodeAllocation{}), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var items []*models.CodeAllocation
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the number of allocation entries matching the filter
func (r *CodeAllocationRepositoryImpl) Count(ctx context.Context, filter models.CodeAllocationFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CodeAllocation{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
