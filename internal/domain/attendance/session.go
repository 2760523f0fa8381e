package attendance

import "time"

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DetermineOpenSession scans records for today's open session and
// returns its check-in time, or nil when none exists. A record counts
// as open when its date is today, check-in is set, check-out is absent
// and it is not a leave entry.
//
// The store's constraint allows at most one such record, but the scan
// must not misbehave on an inconsistent store: when several match, the
// most recently created one wins. The function is pure; calling it
// twice with the same input yields the same result.
func DetermineOpenSession(records []Record, today time.Time) *time.Time {
	var open *Record
	for i := range records {
		r := &records[i]
		if !SameDay(r.Date, today) || !r.OpenSession() {
			continue
		}
		if open == nil || r.CreatedAt.After(open.CreatedAt) {
			open = r
		}
	}
	if open == nil {
		return nil
	}
	return open.CheckIn
}
