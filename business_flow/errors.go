// Package businessflow contains the core business logic and use cases of the portal
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Jurisdiction-related errors
	ErrJurisdictionNotFound           = errors.New("jurisdiction not found")
	ErrJurisdictionInactive           = errors.New("jurisdiction is inactive")
	ErrJurisdictionIdentifierExists   = errors.New("jurisdiction identifier already exists")
	ErrJurisdictionIdentifierRequired = errors.New("jurisdiction identifier is required")
	ErrJurisdictionUpdateRequired     = errors.New("at least one field must be provided for update")

	// Sequence-related errors
	ErrSequenceExhausted       = errors.New("sequence exhausted")
	ErrCounterStoreUnavailable = errors.New("counter store unavailable")
	ErrInvalidRecordType       = errors.New("invalid record type")
	ErrInvalidSequenceValue    = errors.New("sequence value out of range")

	// Project-related errors
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectTitleRequired = errors.New("project title is required")

	// Generic validation errors
	ErrValidation   = errors.New("validation failed")
	ErrInvalidUUID  = errors.New("invalid uuid")
	ErrInvalidPage  = errors.New("page must be at least 1")
	ErrInvalidLimit = errors.New("page size must be between 1 and 100")
)

// NotFoundError reports an unknown jurisdiction
type NotFoundError struct {
	JurisdictionID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("jurisdiction %d not found", e.JurisdictionID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrJurisdictionNotFound
}

// OverflowError reports a counter that already holds the largest representable suffix
type OverflowError struct {
	JurisdictionID uint
	RecordType     string
	Max            int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("sequence for jurisdiction %d record type %q exhausted at %d", e.JurisdictionID, e.RecordType, e.Max)
}

func (e *OverflowError) Unwrap() error {
	return ErrSequenceExhausted
}

// StoreUnavailableError reports a storage failure; no number was consumed
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("counter store unavailable during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("counter store unavailable during %s", e.Op)
}

func (e *StoreUnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCounterStoreUnavailable}
	}
	return []error{ErrCounterStoreUnavailable, e.Err}
}

// ValidationError reports a rejected input field
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsJurisdictionNotFound(err error) bool {
	return errors.Is(err, ErrJurisdictionNotFound)
}

func IsJurisdictionInactive(err error) bool {
	return errors.Is(err, ErrJurisdictionInactive)
}

func IsJurisdictionIdentifierExists(err error) bool {
	return errors.Is(err, ErrJurisdictionIdentifierExists)
}

func IsJurisdictionUpdateRequired(err error) bool {
	return errors.Is(err, ErrJurisdictionUpdateRequired)
}

func IsSequenceExhausted(err error) bool {
	return errors.Is(err, ErrSequenceExhausted)
}

func IsCounterStoreUnavailable(err error) bool {
	return errors.Is(err, ErrCounterStoreUnavailable)
}

func IsInvalidRecordType(err error) bool {
	return errors.Is(err, ErrInvalidRecordType)
}

func IsInvalidSequenceValue(err error) bool {
	return errors.Is(err, ErrInvalidSequenceValue)
}

func IsProjectNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidUUID(err error) bool {
	return errors.Is(err, ErrInvalidUUID)
}
