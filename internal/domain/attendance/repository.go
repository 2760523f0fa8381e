package attendance

import (
	"context"
	"time"
)

// Repository defines data access for attendance records. The store is
// the single serialization point for session state: check-in relies on
// the store's one-open-record constraint, and check-out treats an
// update that matches no open row as the authoritative signal.
type Repository interface {
	// CreateCheckIn inserts a new open session record.
	// Returns ErrDuplicateOpenSession when the one-open-record
	// constraint rejects the insert.
	CreateCheckIn(ctx context.Context, rec Record) (Record, error)

	// UpdateCheckOut closes the user's open record for the given day
	// and returns the stored row. Returns ErrNoActiveSession when no
	// open record matched.
	UpdateCheckOut(ctx context.Context, userID string, date time.Time, checkOut time.Time, totalHours float64) (Record, error)

	// ListByUser retrieves the user's records, newest first. Callers
	// re-derive "today's open record" themselves; no ordering beyond
	// the filter is assumed.
	ListByUser(ctx context.Context, userID string, filter HistoryFilter) ([]Record, int64, error)

	// ListByUserAndDate retrieves all of the user's records for one day.
	ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]Record, error)

	// CreateLeave inserts a leave-flagged record.
	CreateLeave(ctx context.Context, rec Record) (Record, error)

	// ResolveLeave atomically moves a pending leave record to the given
	// approval state and returns the updated record. Returns
	// ErrRecordNotFound, ErrNotALeaveRecord, or ErrLeaveAlreadyProcessed
	// when the record cannot be resolved.
	ResolveLeave(ctx context.Context, id string, status string, reason *string) (Record, error)

	// ListStaleOpenSessions returns open sessions whose day ended
	// before the given date. Used by the auto-close job.
	ListStaleOpenSessions(ctx context.Context, before time.Time) ([]Record, error)

	// AutoClose force-closes a stale session by ID.
	AutoClose(ctx context.Context, id string, checkOut time.Time, totalHours float64) error
}
