package response

import (
	"errors"
	"net/http"

	"github.com/shiftdesk/timeclock-backend-go/internal/domain/attendance"
	"github.com/shiftdesk/timeclock-backend-go/internal/domain/breaks"
	"github.com/shiftdesk/timeclock-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrNoActiveSession):
		Conflict(w, "No active session")
	case errors.Is(err, attendance.ErrDuplicateOpenSession):
		Conflict(w, "A session is already open")
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrLeaveAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, attendance.ErrNotALeaveRecord):
		BadRequest(w, "Record is not a leave request", nil)
	case errors.Is(err, attendance.ErrStoreUnavailable):
		ServiceUnavailable(w, "Attendance store is unavailable")

	// Break domain errors
	case errors.Is(err, breaks.ErrBreakAlreadyOpen):
		Conflict(w, "A break is already open")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
