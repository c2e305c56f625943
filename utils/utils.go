// Package utils provides utility functions for the application.
package utils

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNilUUID is returned by ParseUUID for the all-zero UUID
var ErrNilUUID = errors.New("nil uuid is not a valid identifier")

func ToPtr[T any](v T) *T {
	return &v
}

func IsTrue(b *bool) bool {
	return b != nil && *b
}

// ParseUUID parses a public identifier, rejecting the nil UUID
func ParseUUID(s string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err
	}
	if parsed == uuid.Nil {
		return uuid.Nil, ErrNilUUID
	}
	return parsed, nil
}
