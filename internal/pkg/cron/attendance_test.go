package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/timeclock-backend-go/internal/domain/attendance"
)

// stubRepository implements the two repository calls the auto-close job
// makes; everything else panics through the embedded nil interface.
type stubRepository struct {
	attendance.Repository

	records  []attendance.Record
	listErr  error
	closeErr map[string]error // per-record AutoClose failure
}

func (s *stubRepository) ListStaleOpenSessions(_ context.Context, before time.Time) ([]attendance.Record, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []attendance.Record
	for _, r := range s.records {
		if r.CheckIn != nil && r.CheckOut == nil && !r.IsOnLeave && r.Date.Before(before) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRepository) AutoClose(_ context.Context, id string, checkOut time.Time, totalHours float64) error {
	if err := s.closeErr[id]; err != nil {
		return err
	}
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].CheckOut = &checkOut
			s.records[i].TotalHours = &totalHours
			s.records[i].Status = attendance.StatusAutoClosed
			return nil
		}
	}
	return attendance.ErrRecordNotFound
}

func openSession(id, userID string, day, checkIn time.Time) attendance.Record {
	return attendance.Record{
		ID:        id,
		UserID:    userID,
		Date:      day,
		CheckIn:   &checkIn,
		IsPresent: true,
		Status:    attendance.StatusPresent,
	}
}

func runJobs(t *testing.T, repo attendance.Repository) error {
	t.Helper()
	scheduler := NewScheduler()
	NewAttendanceJobs(repo, time.UTC).RegisterJobs(scheduler)
	return scheduler.RunOnce(context.Background())
}

func TestAutoCloseStaleSessions_ClosesAtEndOfDay(t *testing.T) {
	day := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	checkIn := time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)
	repo := &stubRepository{
		records: []attendance.Record{openSession("rec-1", "user-1", day, checkIn)},
	}

	require.NoError(t, runJobs(t, repo))

	closed := repo.records[0]
	require.NotNil(t, closed.CheckOut)
	assert.Equal(t, time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC), closed.CheckOut.UTC())
	assert.Equal(t, attendance.StatusAutoClosed, closed.Status)

	// 09:00 to 23:59:59 with no break intervals on record.
	require.NotNil(t, closed.TotalHours)
	assert.InDelta(t, 53999.0/3600.0, *closed.TotalHours, 1e-9)
}

func TestAutoCloseStaleSessions_SkipsTodaysOpenSession(t *testing.T) {
	year, month, dayNum := time.Now().UTC().Date()
	today := time.Date(year, month, dayNum, 0, 0, 0, 0, time.UTC)
	checkIn := today.Add(9 * time.Hour)
	repo := &stubRepository{
		records: []attendance.Record{openSession("rec-1", "user-1", today, checkIn)},
	}

	require.NoError(t, runJobs(t, repo))

	assert.Nil(t, repo.records[0].CheckOut, "an open session from today must stay open")
	assert.Equal(t, attendance.StatusPresent, repo.records[0].Status)
}

func TestAutoCloseStaleSessions_ContinuesPastFailedClose(t *testing.T) {
	day := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	checkIn := time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)
	repo := &stubRepository{
		records: []attendance.Record{
			openSession("rec-1", "user-1", day, checkIn),
			openSession("rec-2", "user-2", day, checkIn),
		},
		closeErr: map[string]error{"rec-1": errors.New("connection refused")},
	}

	require.NoError(t, runJobs(t, repo), "one failed close must not fail the run")

	assert.Nil(t, repo.records[0].CheckOut)
	assert.NotNil(t, repo.records[1].CheckOut)
	assert.Equal(t, attendance.StatusAutoClosed, repo.records[1].Status)
}

func TestRunOnce_ReportsJobFailure(t *testing.T) {
	repo := &stubRepository{listErr: errors.New("connection refused")}

	err := runJobs(t, repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto_close_stale_sessions")
}
