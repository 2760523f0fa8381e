package worktime

import (
	"testing"
	"time"

	"github.com/shiftdesk/timeclock-backend-go/internal/domain/breaks"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestProject(t *testing.T) {
	day := func(h, m int) time.Time {
		return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
	}

	tests := []struct {
		name      string
		checkIn   *time.Time
		now       time.Time
		intervals []breaks.Interval
		want      float64
	}{
		{
			name:    "no open session is zero",
			checkIn: nil,
			now:     day(12, 0),
			want:    0,
		},
		{
			name:    "no breaks",
			checkIn: timePtr(day(9, 0)),
			now:     day(17, 0),
			want:    8,
		},
		{
			name:    "closed break subtracted",
			checkIn: timePtr(day(9, 0)),
			now:     day(14, 0),
			intervals: []breaks.Interval{
				{Start: day(12, 0), End: timePtr(day(12, 30))},
			},
			want: 4.5,
		},
		{
			name:    "multiple closed breaks",
			checkIn: timePtr(day(9, 0)),
			now:     day(17, 0),
			intervals: []breaks.Interval{
				{Start: day(10, 30), End: timePtr(day(10, 45))},
				{Start: day(12, 0), End: timePtr(day(13, 0))},
			},
			want: 6.75,
		},
		{
			name:    "open break contributes zero",
			checkIn: timePtr(day(9, 0)),
			now:     day(13, 0),
			intervals: []breaks.Interval{
				{Start: day(12, 0)},
			},
			want: 4,
		},
		{
			name:    "breaks exceeding elapsed clamp at zero",
			checkIn: timePtr(day(9, 0)),
			now:     day(9, 30),
			intervals: []breaks.Interval{
				{Start: day(8, 0), End: timePtr(day(9, 45))},
			},
			want: 0,
		},
		{
			name:    "sub-hour precision",
			checkIn: timePtr(day(9, 0)),
			now:     day(9, 0).Add(90 * time.Minute),
			want:    1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(tt.checkIn, tt.now, tt.intervals)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Project() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClosedBreakDuration(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	intervals := []breaks.Interval{
		{Start: start, End: timePtr(start.Add(30 * time.Minute))},
		{Start: start.Add(time.Hour)}, // open, ignored
	}

	if got := ClosedBreakDuration(intervals); got != 30*time.Minute {
		t.Errorf("ClosedBreakDuration() = %v, want 30m", got)
	}
}

func TestRemainingHours(t *testing.T) {
	tests := []struct {
		name   string
		worked float64
		target float64
		want   float64
	}{
		{"nothing worked", 0, 9, 9},
		{"partial", 4.5, 9, 4.5},
		{"target met", 9, 9, 0},
		{"overtime clamps at zero", 10.25, 9, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingHours(tt.worked, tt.target); got != tt.want {
				t.Errorf("RemainingHours(%v, %v) = %v, want %v", tt.worked, tt.target, got, tt.want)
			}
		})
	}
}
