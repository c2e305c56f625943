package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidRecordType(t *testing.T) {
	valid := []string{"project", "permit", "building_permit", "a", "x-1"}
	for _, v := range valid {
		assert.True(t, IsValidRecordType(v), v)
	}

	invalid := []string{"", "Project", "1project", "has space", "_lead", "abcdefghijklmnopqrstuvwxyz0123456"}
	for _, v := range invalid {
		assert.False(t, IsValidRecordType(v), v)
	}
}

func TestIsValidJurisdictionIdentifier(t *testing.T) {
	valid := []string{"RDC4", "NDC", "R1", "ABCDEFGHIJKLMNOP"}
	for _, v := range valid {
		assert.True(t, IsValidJurisdictionIdentifier(v), v)
	}

	invalid := []string{"", "R", "rdc4", "4RDC", "RDC-4", "ABCDEFGHIJKLMNOPQ"}
	for _, v := range invalid {
		assert.False(t, IsValidJurisdictionIdentifier(v), v)
	}
}

func TestNewRequestID(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewRequestID()
		assert.NotEmpty(t, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}
