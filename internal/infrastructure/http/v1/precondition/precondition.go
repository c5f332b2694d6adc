// Package precondition parses ETag/If-Match headers into the version
// integers the command core's optimistic-concurrency check expects.
package precondition

import (
	"strconv"
	"strings"

	"inventorycore/internal/core/apperror"
)

// ParseVersion parses header values of the form `"3"` or `W/"3"` into a
// positive integer version. Empty input is not an error: it means no
// precondition was supplied. Non-positive integers and malformed values
// are rejected with an INVALID_IF_MATCH error (400).
func ParseVersion(header string) (*int, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}

	header = strings.TrimPrefix(header, "W/")
	header = strings.Trim(header, `"`)

	version, err := strconv.Atoi(header)
	if err != nil {
		return nil, apperror.NewInvalidIfMatch("malformed precondition header").WithDetail("value", header)
	}
	if version <= 0 {
		return nil, apperror.NewInvalidIfMatch("precondition version must be a positive integer").WithDetail("value", header)
	}
	return &version, nil
}

// Format renders version as a strong ETag.
func Format(version int) string {
	return `"` + strconv.Itoa(version) + `"`
}
