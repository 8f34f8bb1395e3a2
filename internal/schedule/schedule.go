package schedule

import (
	"time"

	"ascended/internal/config"
)

// RollingWindow is the length of a rolling_30d reset period.
const RollingWindow = 30 * 24 * time.Hour

// ResetDue reports whether a new allotment period has started at now.
// A zero last reset is always due; a now before last (clock skew) never is.
func ResetDue(cadence string, last, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	if now.Before(last) {
		return false
	}
	if cadence == config.CadenceRolling30d {
		return now.Sub(last) >= RollingWindow
	}
	ly, lm, _ := last.UTC().Date()
	ny, nm, _ := now.UTC().Date()
	return ny > ly || (ny == ly && nm > lm)
}

// NextReset returns the instant the period containing last ends.
func NextReset(cadence string, last, now time.Time) time.Time {
	if ResetDue(cadence, last, now) {
		return now
	}
	if cadence == config.CadenceRolling30d {
		return last.Add(RollingWindow)
	}
	return StartOfNextMonth(last)
}

// StartOfNextMonth returns midnight UTC on the first day of the month after t.
func StartOfNextMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
}
