// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"

	"github.com/amirphl/civic-portal/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

// ErrSequenceExhausted is returned by a CounterStore when the counter already holds the maximum value
var ErrSequenceExhausted = errors.New("sequence exhausted")

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// Transactor runs a function inside a database transaction carried by the context
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(context.Context) error) error
}

// JurisdictionRepository defines operations for jurisdictions
type JurisdictionRepository interface {
	Repository[models.Jurisdiction, models.JurisdictionFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Jurisdiction, error)
	ByIdentifier(ctx context.Context, identifier string) (*models.Jurisdiction, error)
	ByIDs(ctx context.Context, ids []uint) ([]*models.Jurisdiction, error)
	// Update writes name and is_active only; the identifier is immutable
	Update(ctx context.Context, jurisdiction *models.Jurisdiction) error
}

// CounterStore owns the per (jurisdiction, record type) counters. IncrementAndGet is the
// only operation that issues numbers; it must be atomic and durable, and must refuse to
// move a counter past max.
type CounterStore interface {
	IncrementAndGet(ctx context.Context, jurisdictionID uint, recordType string, max int64) (int64, error)
	Current(ctx context.Context, jurisdictionID uint, recordType string) (int64, error)
	All(ctx context.Context) ([]*models.SequenceCounter, error)
	// RaiseTo moves a counter up to value; it never lowers a counter.
	RaiseTo(ctx context.Context, jurisdictionID uint, recordType string, value int64) (bool, error)
}

// SequenceCounterRepository is the gorm backed CounterStore
type SequenceCounterRepository interface {
	CounterStore
	ByFilter(ctx context.Context, filter models.SequenceCounterFilter, orderBy string, limit, offset int) ([]*models.SequenceCounter, error)
	Count(ctx context.Context, filter models.SequenceCounterFilter) (int64, error)
}

// ProjectRepository defines operations for projects
type ProjectRepository interface {
	Repository[models.Project, models.ProjectFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Project, error)
	ByCode(ctx context.Context, code string) (*models.Project, error)
}

// CodeAllocationRepository defines operations for the allocation history
type CodeAllocationRepository interface {
	Save(ctx context.Context, entity *models.CodeAllocation) error
	ByFilter(ctx context.Context, filter models.CodeAllocationFilter, orderBy string, limit, offset int) ([]*models.CodeAllocation, error)
	Count(ctx context.Context, filter models.CodeAllocationFilter) (int64, error)
}
