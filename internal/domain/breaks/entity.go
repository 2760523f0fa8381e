package breaks

import "time"

// Interval is a single break taken during an open attendance session.
// A nil End marks the currently running break; at most one interval per
// user may be open at a time.
type Interval struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end"`
}

// Open reports whether the interval has not been closed yet.
func (i Interval) Open() bool {
	return i.End == nil
}
