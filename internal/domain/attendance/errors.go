package attendance

import "errors"

// Attendance domain errors
var (
	// Session errors
	ErrNoActiveSession      = errors.New("no active session to check out from")
	ErrDuplicateOpenSession = errors.New("an open session already exists for today")
	ErrStoreUnavailable     = errors.New("attendance store unavailable")

	// General errors
	ErrRecordNotFound = errors.New("attendance record not found")

	// Leave errors
	ErrLeaveAlreadyProcessed = errors.New("leave request has already been approved or rejected")
	ErrNotALeaveRecord       = errors.New("attendance record is not a leave entry")
)
