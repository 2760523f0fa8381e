package breaks

import (
	"context"
	"time"
)

// Ledger stores the break intervals of each user's current attendance
// session. Intervals are session-scoped: Clear is called on check-out,
// and implementations are free to lose the data on process restart.
// Break history is not part of the persisted attendance record.
type Ledger interface {
	// Start opens a new interval at the given time.
	// Returns ErrBreakAlreadyOpen if an interval is still open.
	Start(ctx context.Context, userID string, at time.Time) error

	// End closes the open interval at the given time.
	// Ending with no open interval is a no-op: the toggle-style UI can
	// fire an end without a matching start after a re-render.
	End(ctx context.Context, userID string, at time.Time) error

	// Intervals returns the session's intervals in insertion order.
	Intervals(ctx context.Context, userID string) ([]Interval, error)

	// Clear discards all intervals for the user.
	Clear(ctx context.Context, userID string) error
}
