// Package services provides business logic and orchestration on top of the
// records ports: entry management, installment materialization and the
// monthly summary engine.
package services

import (
	"time"

	"bilancio/internal/core"
)

// InstallmentDue reports whether a definition with the given day-of-month
// should generate an installment at now.
//
// A definition is due once the clamped target day has been reached, unless it
// already generated in the current month. A nil lastGenerated means it has
// never generated, so only the day gate applies. Catch-up is bounded to the
// current month: a worker that was down for two months generates one
// installment, not three.
func InstallmentDue(lastGenerated *time.Time, now time.Time, dayOfMonth int) bool {
	if lastGenerated != nil && core.SameMonth(*lastGenerated, now) {
		return false
	}
	target := core.ClampDayOfMonth(now.Year(), now.Month(), dayOfMonth)
	return now.Day() >= target
}

// InstallmentDate is the timestamp recorded on a materialized installment:
// the clamped target day of the current month, at midnight UTC.
func InstallmentDate(now time.Time, dayOfMonth int) time.Time {
	day := core.ClampDayOfMonth(now.Year(), now.Month(), dayOfMonth)
	return time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, time.UTC)
}
