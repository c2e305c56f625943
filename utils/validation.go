package utils

import "regexp"

var (
	recordTypePattern             = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)
	jurisdictionIdentifierPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,15}$`)
)

// IsValidRecordType reports whether s can key a sequence counter, e.g. "project" or "permit"
func IsValidRecordType(s string) bool {
	return recordTypePattern.MatchString(s)
}

// IsValidJurisdictionIdentifier reports whether s is a display code such as "RDC4"
func IsValidJurisdictionIdentifier(s string) bool {
	return jurisdictionIdentifierPattern.MatchString(s)
}
