// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"time"

	"github.com/danielhkuo/electorate/models"
)

// ClassifyWindow reports where now falls relative to an election's voting
// window. Both boundaries are inclusive: a vote arriving at exactly
// start_at or end_at is admissible.
func ClassifyWindow(startAt, endAt, now time.Time) string {
	if now.Before(startAt) {
		return models.WindowUpcoming
	}
	if now.After(endAt) {
		return models.WindowEnded
	}
	return models.WindowActive
}
