// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/utils"
	"gorm.io/gorm"
)

// ProjectRepositoryImpl implements ProjectRepository interface
type ProjectRepositoryImpl struct {
	*BaseRepository[models.Project, models.ProjectFilter]
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &ProjectRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Project, models.ProjectFilter](db),
	}
}

// ByUUID retrieves a project by UUID (string)
func (r *ProjectRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Project, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}
	items, err := r.ByFilter(ctx, models.ProjectFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByCode retrieves a project by its allocated code
func (r *ProjectRepositoryImpl) ByCode(ctx context.Context, code string) (*models.Project, error) {
	items, err := r.ByFilter(ctx, models.ProjectFilter{Code: &code}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (r *ProjectRepositoryImpl) applyFilter(query *gorm.DB, filter models.ProjectFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.JurisdictionID != nil {
		query = query.Where("jurisdiction_id = ?", *filter.JurisdictionID)
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

// ByFilter retrieves projects based on filter criteria
func (r *ProjectRepositoryImpl) ByFilter(ctx context.Context, filter models.ProjectFilter, orderBy string, limit, offset int) ([]*models.Project, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Project{}), filter)

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

	var projects []*models.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Count returns the number of projects matching the filter
func (r *ProjectRepositoryImpl) Count(ctx context.Context, filter models.ProjectFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Project{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any project matching the filter exists
func (r *ProjectRepositoryImpl) Exists(ctx context.Context, filter models.ProjectFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
