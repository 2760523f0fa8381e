package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shiftdesk/timeclock-backend-go/internal/domain/attendance"
	"github.com/shiftdesk/timeclock-backend-go/internal/domain/worktime"
)

// AttendanceJobs closes open sessions whose calendar day has passed.
// Sessions left open by a forgotten check-out would otherwise block the
// next day's check-in against the one-open-record constraint forever.
type AttendanceJobs struct {
	attendanceRepo attendance.Repository
	loc            *time.Location
}

func NewAttendanceJobs(attendanceRepo attendance.Repository, loc *time.Location) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		loc:            loc,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_close_stale_sessions", 1*time.Hour, j.AutoCloseStaleSessions)
}

// AutoCloseStaleSessions force-closes every open session from a
// previous calendar day. The close timestamp is the end of the session's
// own day; total hours come from the projector with no break intervals,
// since the break ledger for that session is long gone.
func (j *AttendanceJobs) AutoCloseStaleSessions(ctx context.Context) error {
	year, month, day := time.Now().In(j.loc).Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	stale, err := j.attendanceRepo.ListStaleOpenSessions(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to list stale open sessions: %w", err)
	}

	if len(stale) == 0 {
		return nil
	}

	closedCount := 0
	for _, session := range stale {
		endOfDay := time.Date(
			session.Date.Year(), session.Date.Month(), session.Date.Day(),
			23, 59, 59, 0, j.loc,
		)

		totalHours := worktime.Project(session.CheckIn, endOfDay, nil)

		if err := j.attendanceRepo.AutoClose(ctx, session.ID, endOfDay.UTC(), totalHours); err != nil {
			slog.Error("Cron: Failed to auto-close session",
				"record_id", session.ID,
				"user_id", session.UserID,
				"error", err)
			continue
		}

		closedCount++
	}

	slog.Info("Cron: Auto-closed stale sessions", "count", closedCount)
	return nil
}
