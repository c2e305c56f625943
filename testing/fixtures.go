package testing

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestJurisdiction inserts an active jurisdiction. An empty identifier gets a random one.
func (tf *TestFixtures) CreateTestJurisdiction(identifier string) (*models.Jurisdiction, error) {
	if identifier == "" {
		identifier = fmt.Sprintf("T%05d", rand.Intn(100000))
	}
	jurisdiction := &models.Jurisdiction{
		UUID:       uuid.New(),
		Identifier: identifier,
		Name:       "Test jurisdiction " + identifier,
		IsActive:   utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(jurisdiction).Error; err != nil {
		return nil, fmt.Errorf("failed to create jurisdiction %s: %w", identifier, err)
	}
	return jurisdiction, nil
}

// SetCounter writes a counter directly, bypassing the raise-only rule
func (tf *TestFixtures) SetCounter(jurisdictionID uint, recordType string, lastIssued int64) error {
	counter := &models.SequenceCounter{
		JurisdictionID: jurisdictionID,
		RecordType:     recordType,
		LastIssued:     lastIssued,
	}
	return tf.DB.DB.Save(counter).Error
}
