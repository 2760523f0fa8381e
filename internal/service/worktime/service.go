package worktime

import (
	"context"
	"time"

	"github.com/shiftdesk/timeclock-backend-go/internal/domain/attendance"
	"github.com/shiftdesk/timeclock-backend-go/internal/pkg/sse"
	attendancesvc "github.com/shiftdesk/timeclock-backend-go/internal/service/attendance"
)

// Snapshot is one tick of the worked-hours stream.
type Snapshot struct {
	Event          string  `json:"-"`
	HasOpenSession bool    `json:"has_open_session"`
	OnBreak        bool    `json:"on_break"`
	WorkedHours    float64 `json:"worked_hours"`
	RemainingHours float64 `json:"remaining_hours"`
	At             string  `json:"at"`
}

const (
	SnapshotEventTick       = "tick"
	SnapshotEventCheckedOut = "checked_out"
)

// LiveService turns the on-demand today status into a push stream. No
// accumulator runs server-side; every tick re-projects from the store
// and the break ledger.
type LiveService struct {
	attendance attendance.Service
	hub        *sse.Hub
	tick       time.Duration
	now        func() time.Time
}

func NewLiveService(att attendance.Service, hub *sse.Hub, tick time.Duration) *LiveService {
	return &LiveService{
		attendance: att,
		hub:        hub,
		tick:       tick,
		now:        time.Now,
	}
}

// Stream emits a snapshot per tick until the context is cancelled or
// the user checks out. Break start/end events force an immediate
// snapshot so the client does not wait a full tick for the toggle.
// The returned channel is closed when the stream ends.
func (s *LiveService) Stream(ctx context.Context, userID string) <-chan Snapshot {
	out := make(chan Snapshot, 1)

	events, unsubscribe := s.hub.Subscribe(userID)

	go func() {
		defer close(out)
		defer unsubscribe()

		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		if !s.emit(ctx, userID, SnapshotEventTick, out) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.emit(ctx, userID, SnapshotEventTick, out) {
					return
				}
			case ev, ok := <-events:
				if !ok {
					return
				}
				switch ev.Event {
				case attendancesvc.EventCheckedOut:
					s.emit(ctx, userID, SnapshotEventCheckedOut, out)
					return
				case attendancesvc.EventBreakStarted, attendancesvc.EventBreakEnded:
					if !s.emit(ctx, userID, SnapshotEventTick, out) {
						return
					}
				}
			}
		}
	}()

	return out
}

// emit projects the current status and pushes a snapshot. Returns false
// when the consumer is gone or the status lookup failed; the stream
// ends rather than emitting stale numbers.
func (s *LiveService) emit(ctx context.Context, userID string, event string, out chan<- Snapshot) bool {
	status, err := s.attendance.Today(ctx, userID)
	if err != nil {
		return false
	}

	snap := Snapshot{
		Event:          event,
		HasOpenSession: status.HasOpenSession,
		OnBreak:        status.OnBreak,
		WorkedHours:    status.WorkedHours,
		RemainingHours: status.RemainingHours,
		At:             s.now().UTC().Format(time.RFC3339),
	}

	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
