package attendance

import (
	"time"
)

// Record statuses.
const (
	StatusPresent    = "present"
	StatusOnLeave    = "on_leave"
	StatusAutoClosed = "auto_closed"
)

// Leave statuses.
const (
	LeaveStatusWaitingApproval = "waiting_approval"
	LeaveStatusApproved        = "approved"
	LeaveStatusRejected        = "rejected"
)

// Record is one attendance row: either a normal check-in entry or a
// leave entry. Leave entries never carry check-in/check-out times.
// A record with CheckIn set and CheckOut absent is an open session; for
// a given (UserID, Date) at most one open record may exist, enforced by
// a partial unique index at the store.
type Record struct {
	ID          string
	UserID      string
	Date        time.Time // calendar day, date-only granularity
	CheckIn     *time.Time
	CheckOut    *time.Time
	TotalHours  *float64 // written once at check-out, full precision
	IsPresent   bool
	IsOnLeave   bool
	LeaveStatus *string
	LeaveType   *string
	LeaveReason *string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OpenSession reports whether the record is an open attendance session.
func (r Record) OpenSession() bool {
	return r.CheckIn != nil && r.CheckOut == nil && !r.IsOnLeave
}
