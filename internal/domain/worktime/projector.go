package worktime

import (
	"time"

	"github.com/shiftdesk/timeclock-backend-go/internal/domain/breaks"
)

const millisPerHour = 3_600_000.0

// ClosedBreakDuration sums the durations of all closed intervals.
// An open interval contributes nothing until it is closed.
func ClosedBreakDuration(intervals []breaks.Interval) time.Duration {
	var total time.Duration
	for _, iv := range intervals {
		if iv.End == nil {
			continue
		}
		total += iv.End.Sub(iv.Start)
	}
	return total
}

// Project derives worked hours from the check-in time, the current time
// and the session's break intervals. Arithmetic is done in milliseconds
// and converted to hours only at the boundary so repeated recomputation
// does not accumulate rounding error. The result is clamped at zero:
// clock skew and break anomalies must never produce a negative value.
func Project(checkIn *time.Time, now time.Time, intervals []breaks.Interval) float64 {
	if checkIn == nil {
		return 0
	}
	elapsed := now.Sub(*checkIn).Milliseconds()
	brk := ClosedBreakDuration(intervals).Milliseconds()
	worked := float64(elapsed-brk) / millisPerHour
	if worked < 0 {
		return 0
	}
	return worked
}

// RemainingHours returns how much of the daily target is left.
func RemainingHours(worked, targetPerDay float64) float64 {
	remaining := targetPerDay - worked
	if remaining < 0 {
		return 0
	}
	return remaining
}
