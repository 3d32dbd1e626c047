// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// OffsetLimit parses skip/limit query values for offset pagination.
//
// A missing or malformed skip is 0 and negative values are raised to 0. A
// missing or malformed limit is defLimit and values above maxLimit are capped;
// a maxLimit of 0 or less disables the cap.
// Non-positive limits are passed through; the store answers them with an
// empty page.
func OffsetLimit(skipStr, limitStr string, defLimit, maxLimit int) (skip, limit int) {
	skip = AtoiDefault(skipStr, 0)
	if skip < 0 {
		skip = 0
	}
	limit = AtoiDefault(limitStr, defLimit)
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}
