// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/utils"
	"gorm.io/gorm"
)

// JurisdictionRepositoryImpl implements JurisdictionRepository interface
type JurisdictionRepositoryImpl struct {
	*BaseRepository[models.Jurisdiction, models.JurisdictionFilter]
}

// NewJurisdictionRepository creates a new jurisdiction repository
func NewJurisdictionRepository(db *gorm.DB) JurisdictionRepository {
	return &JurisdictionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Jurisdiction, models.JurisdictionFilter](db),
	}
}

// ByUUID retrieves a jurisdiction by UUID (string)
func (r *JurisdictionRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Jurisdiction, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.JurisdictionFilter{UUID: &parsed}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByIdentifier retrieves a jurisdiction by its display identifier (e.g. RDC4)
func (r *JurisdictionRepositoryImpl) ByIdentifier(ctx context.Context, identifier string) (*models.Jurisdiction, error) {
	filter := models.JurisdictionFilter{Identifier: &identifier}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByIDs retrieves all jurisdictions with the given IDs
func (r *JurisdictionRepositoryImpl) ByIDs(ctx context.Context, ids []uint) ([]*models.Jurisdiction, error) {
	if len(ids) == 0 {
		return []*models.Jurisdiction{}, nil
	}
	db := r.getDB(ctx)

	var items []*models.Jurisdiction
	if err := db.Where("id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *JurisdictionRepositoryImpl) applyFilter(query *gorm.DB, filter models.JurisdictionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Identifier != nil {
		query = query.Where("identifier = ?", *filter.Identifier)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves jurisdictions based on filter criteria
func (r *JurisdictionRepositoryImpl) ByFilter(ctx context.Context, filter models.JurisdictionFilter, orderBy string, limit, offset int) ([]*models.Jurisdiction, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Jurisdiction{})

	query = r.applyFilter(query, filter)

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

	var items []*models.Jurisdiction
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the number of jurisdictions matching the filter
func (r *JurisdictionRepositoryImpl) Count(ctx context.Context, filter models.JurisdictionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Jurisdiction{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any jurisdiction matching the filter exists
func (r *JurisdictionRepositoryImpl) Exists(ctx context.Context, filter models.JurisdictionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates the mutable fields of a jurisdiction by ID
func (r *JurisdictionRepositoryImpl) Update(ctx context.Context, jurisdiction *models.Jurisdiction) (err error) {
	if jurisdiction == nil {
		return errors.New("jurisdiction payload is nil")
	}
	if jurisdiction.ID == 0 {
		return errors.New("jurisdiction ID is required for update")
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			err = finishWrite(db, err)
		}()
	}

	updates := map[string]any{
		"updated_at": utils.UTCNow(),
	}
	if jurisdiction.Name != "" {
		updates["name"] = jurisdiction.Name
	}
	if jurisdiction.IsActive != nil {
		updates["is_active"] = *jurisdiction.IsActive
	}

	result := db.Model(&models.Jurisdiction{}).
		Where("id = ?", jurisdiction.ID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("jurisdiction not found with ID: " + strconv.Itoa(int(jurisdiction.ID)))
	}
	return nil
}
