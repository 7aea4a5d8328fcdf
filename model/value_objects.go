// Package model provides value objects for form parameter validation.
package model

import (
	"strconv"
	"strings"
)

// ParseCount converts a raw form value into an integer count.
// Surrounding whitespace is ignored; anything that is not a base-10 integer
// is reported as a ValidationError for the named field.
func ParseCount(field, raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, NewValidationError(field, "is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, NewValidationError(field, "must be an integer")
	}
	return n, nil
}

func formatCount(n int) string {
	return strconv.Itoa(n)
}

// SortOrder represents the order of a listing.
type SortOrder struct {
	value string
}

var (
	// SortOrderAsc lists the oldest report first.
	SortOrderAsc = SortOrder{value: "asc"}
	// SortOrderDesc lists the newest report first.
	SortOrderDesc = SortOrder{value: "desc"}
)

// IsDesc reports whether the order is newest-first.
func (o SortOrder) IsDesc() bool {
	return o.value == "desc"
}

// String returns the order string.
func (o SortOrder) String() string {
	return o.value
}
