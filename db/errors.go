// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import "strings"

// IsUniqueViolation reports whether err is a unique-constraint violation
// from either supported driver. lib/pq reports "pq: duplicate key value
// violates unique constraint ..."; modernc.org/sqlite reports
// "constraint failed: UNIQUE constraint failed: ...". Neither driver
// exposes a stable error type for this, so we match the message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
