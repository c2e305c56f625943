package utils

import (
	"time"
)

// Sequence code constants
const (
	// SequenceDigits is the zero-padded width of the numeric suffix (RDC4-000001)
	SequenceDigits = 6

	// MaxSequenceValue is the largest suffix that fits in SequenceDigits
	MaxSequenceValue int64 = 999999

	// CodeSeparator joins the jurisdiction identifier and the suffix
	CodeSeparator = "-"

	// RecordTypeProject is the record type used for project codes
	RecordTypeProject = "project"

	// RecordTypePermit is the record type used for permit codes
	RecordTypePermit = "permit"
)

// Cache constants
const (
	// JurisdictionIdentifierCachePrefix prefixes cached jurisdiction identifiers.
	// Identifiers are immutable so entries carry no TTL.
	JurisdictionIdentifierCachePrefix = "jurisdiction:identifier:"

	// CacheOperationTimeout bounds a single cache round trip
	CacheOperationTimeout = 500 * time.Millisecond
)
