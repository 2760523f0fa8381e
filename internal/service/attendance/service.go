package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shiftdesk/timeclock-backend-go/internal/config"
	"github.com/shiftdesk/timeclock-backend-go/internal/domain/attendance"
	"github.com/shiftdesk/timeclock-backend-go/internal/domain/breaks"
	"github.com/shiftdesk/timeclock-backend-go/internal/domain/worktime"
	"github.com/shiftdesk/timeclock-backend-go/internal/pkg/report"
	"github.com/shiftdesk/timeclock-backend-go/internal/pkg/sse"
)

// Events published on the SSE hub.
const (
	EventCheckedOut   = "attendance.checked_out"
	EventBreakStarted = "attendance.break_started"
	EventBreakEnded   = "attendance.break_ended"
)

type AttendanceServiceImpl struct {
	repo   attendance.Repository
	ledger breaks.Ledger
	hub    *sse.Hub

	// Duplicate in-flight calls per user collapse into one, keyed per
	// operation so a check-out never joins a check-in's flight and
	// inherits its result. Survivors race against the store's unique
	// index, not against each other.
	sf singleflight.Group

	storeTimeout time.Duration
	targetHours  float64
	loc          *time.Location
	now          func() time.Time
}

func NewAttendanceService(
	repo attendance.Repository,
	ledger breaks.Ledger,
	hub *sse.Hub,
	cfg config.AttendanceConfig,
) *AttendanceServiceImpl {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &AttendanceServiceImpl{
		repo:         repo,
		ledger:       ledger,
		hub:          hub,
		storeTimeout: cfg.StoreTimeout,
		targetHours:  cfg.TargetHoursPerDay,
		loc:          loc,
		now:          time.Now,
	}
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format("2006-01-02 15:04:05")
	return &format
}

// dayOf reduces a timestamp to its date-only representation.
func dayOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// storeErr tags store failures that hit the bounded timeout so callers
// see StoreUnavailable instead of an indefinite hang or a raw context
// error.
func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return attendance.ErrStoreUnavailable
	}
	return err
}

func (s *AttendanceServiceImpl) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *AttendanceServiceImpl) todayRecords(ctx context.Context, userID string, nowLocal time.Time) ([]attendance.Record, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	records, err := s.repo.ListByUserAndDate(sctx, userID, dayOf(nowLocal))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch today's records: %w", storeErr(err))
	}
	return records, nil
}

// CheckIn implements attendance.Service.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, userID string) (attendance.RecordResponse, error) {
	res, err, _ := s.sf.Do(userID+":check-in", func() (interface{}, error) {
		return s.checkIn(ctx, userID)
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	return res.(attendance.RecordResponse), nil
}

func (s *AttendanceServiceImpl) checkIn(ctx context.Context, userID string) (attendance.RecordResponse, error) {
	nowUTC := s.now().UTC()
	nowLocal := nowUTC.In(s.loc)

	records, err := s.todayRecords(ctx, userID, nowLocal)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	if attendance.DetermineOpenSession(records, nowLocal) != nil {
		return attendance.RecordResponse{}, attendance.ErrDuplicateOpenSession
	}

	// A crashed session can leave stale intervals behind; today's
	// session starts with an empty ledger.
	if err := s.ledger.Clear(ctx, userID); err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to reset break ledger: %w", err)
	}

	rec := attendance.Record{
		UserID:    userID,
		Date:      dayOf(nowLocal),
		CheckIn:   &nowUTC,
		IsPresent: true,
		Status:    attendance.StatusPresent,
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	created, err := s.repo.CreateCheckIn(sctx, rec)
	if err != nil {
		if errors.Is(err, attendance.ErrDuplicateOpenSession) {
			return attendance.RecordResponse{}, attendance.ErrDuplicateOpenSession
		}
		return attendance.RecordResponse{}, fmt.Errorf("failed to create check-in: %w", storeErr(err))
	}

	return mapRecordToResponse(created), nil
}

// CheckOut implements attendance.Service. Any open break is closed
// first; the recorded total is the projector's value at full precision.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, userID string) (attendance.RecordResponse, error) {
	res, err, _ := s.sf.Do(userID+":check-out", func() (interface{}, error) {
		return s.checkOut(ctx, userID)
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	return res.(attendance.RecordResponse), nil
}

func (s *AttendanceServiceImpl) checkOut(ctx context.Context, userID string) (attendance.RecordResponse, error) {
	nowUTC := s.now().UTC()
	nowLocal := nowUTC.In(s.loc)

	records, err := s.todayRecords(ctx, userID, nowLocal)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	checkInAt := attendance.DetermineOpenSession(records, nowLocal)
	if checkInAt == nil {
		return attendance.RecordResponse{}, attendance.ErrNoActiveSession
	}

	if err := s.ledger.End(ctx, userID, nowUTC); err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to close open break: %w", err)
	}

	intervals, err := s.ledger.Intervals(ctx, userID)
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to read break ledger: %w", err)
	}

	totalHours := worktime.Project(checkInAt, nowUTC, intervals)

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	updated, err := s.repo.UpdateCheckOut(sctx, userID, dayOf(nowLocal), nowUTC, totalHours)
	if err != nil {
		if errors.Is(err, attendance.ErrNoActiveSession) {
			// The store is the lock: a vanished open row is the
			// authoritative no-active-session signal.
			return attendance.RecordResponse{}, attendance.ErrNoActiveSession
		}
		return attendance.RecordResponse{}, fmt.Errorf("failed to update check-out: %w", storeErr(err))
	}

	if err := s.ledger.Clear(ctx, userID); err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to clear break ledger: %w", err)
	}

	if s.hub != nil {
		s.hub.Publish(userID, sse.Event{
			UserID: userID,
			Event:  EventCheckedOut,
			Data:   map[string]interface{}{"total_hours": totalHours},
		})
	}

	return mapRecordToResponse(updated), nil
}

// StartBreak implements attendance.Service.
func (s *AttendanceServiceImpl) StartBreak(ctx context.Context, userID string) error {
	nowUTC := s.now().UTC()
	nowLocal := nowUTC.In(s.loc)

	records, err := s.todayRecords(ctx, userID, nowLocal)
	if err != nil {
		return err
	}
	if attendance.DetermineOpenSession(records, nowLocal) == nil {
		return attendance.ErrNoActiveSession
	}

	if err := s.ledger.Start(ctx, userID, nowUTC); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.Publish(userID, sse.Event{UserID: userID, Event: EventBreakStarted})
	}
	return nil
}

// EndBreak implements attendance.Service. Ending with no open break is
// a no-op: the toggle UI can fire end without a matching start.
func (s *AttendanceServiceImpl) EndBreak(ctx context.Context, userID string) error {
	nowUTC := s.now().UTC()

	if err := s.ledger.End(ctx, userID, nowUTC); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.Publish(userID, sse.Event{UserID: userID, Event: EventBreakEnded})
	}
	return nil
}

// Today implements attendance.Service. Session state is re-derived from
// the store on every call; no local boolean shadows it.
func (s *AttendanceServiceImpl) Today(ctx context.Context, userID string) (attendance.TodayStatusResponse, error) {
	nowUTC := s.now().UTC()
	nowLocal := nowUTC.In(s.loc)

	records, err := s.todayRecords(ctx, userID, nowLocal)
	if err != nil {
		return attendance.TodayStatusResponse{}, err
	}

	checkInAt := attendance.DetermineOpenSession(records, nowLocal)

	intervals, err := s.ledger.Intervals(ctx, userID)
	if err != nil {
		return attendance.TodayStatusResponse{}, fmt.Errorf("failed to read break ledger: %w", err)
	}

	onBreak := false
	if checkInAt != nil && len(intervals) > 0 {
		onBreak = intervals[len(intervals)-1].Open()
	}

	worked := worktime.Project(checkInAt, nowUTC, intervals)

	resp := attendance.TodayStatusResponse{
		HasOpenSession: checkInAt != nil,
		CheckInTime:    timePtrToString(checkInAt),
		OnBreak:        onBreak,
		WorkedHours:    worked,
		RemainingHours: worktime.RemainingHours(worked, s.targetHours),
		CanCheckOut:    checkInAt != nil,
	}

	hasCheckedInToday := false
	var latest *attendance.Record
	for i := range records {
		r := &records[i]
		if r.CheckIn != nil && !r.IsOnLeave {
			hasCheckedInToday = true
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest != nil {
		mapped := mapRecordToResponse(*latest)
		resp.Today = &mapped
	}
	resp.CanCheckIn = !hasCheckedInToday

	return resp, nil
}

// History implements attendance.Service.
func (s *AttendanceServiceImpl) History(ctx context.Context, userID string, filter attendance.HistoryFilter) (attendance.ListRecordsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	records, total, err := s.repo.ListByUser(sctx, userID, filter)
	if err != nil {
		return attendance.ListRecordsResponse{}, fmt.Errorf("failed to list attendance history: %w", storeErr(err))
	}

	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, mapRecordToResponse(rec))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListRecordsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Records:    responses,
	}, nil
}

// ExportHistory implements attendance.Service.
func (s *AttendanceServiceImpl) ExportHistory(ctx context.Context, userID string, filter attendance.HistoryFilter) ([]byte, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = 100
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	records, _, err := s.repo.ListByUser(sctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for export: %w", storeErr(err))
	}

	return report.AttendanceXLSX(records)
}

// ApplyLeave implements attendance.Service. Leave entries never carry
// check-in/check-out times and are invisible to the session tracker.
func (s *AttendanceServiceImpl) ApplyLeave(ctx context.Context, req attendance.ApplyLeaveRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("invalid leave date: %w", err)
	}

	waiting := attendance.LeaveStatusWaitingApproval
	rec := attendance.Record{
		UserID:      req.UserID,
		Date:        date,
		IsOnLeave:   true,
		LeaveStatus: &waiting,
		LeaveType:   &req.LeaveType,
		LeaveReason: &req.Reason,
		Status:      attendance.StatusOnLeave,
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	created, err := s.repo.CreateLeave(sctx, rec)
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to create leave record: %w", storeErr(err))
	}

	return mapRecordToResponse(created), nil
}

// ApproveLeave implements attendance.Service.
func (s *AttendanceServiceImpl) ApproveLeave(ctx context.Context, id string) (attendance.RecordResponse, error) {
	return s.resolveLeave(ctx, id, attendance.LeaveStatusApproved, nil)
}

// RejectLeave implements attendance.Service.
func (s *AttendanceServiceImpl) RejectLeave(ctx context.Context, req attendance.RejectLeaveRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}
	return s.resolveLeave(ctx, req.ID, attendance.LeaveStatusRejected, &req.Reason)
}

func (s *AttendanceServiceImpl) resolveLeave(ctx context.Context, id string, status string, reason *string) (attendance.RecordResponse, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	rec, err := s.repo.ResolveLeave(sctx, id, status, reason)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrRecordNotFound),
			errors.Is(err, attendance.ErrNotALeaveRecord),
			errors.Is(err, attendance.ErrLeaveAlreadyProcessed):
			return attendance.RecordResponse{}, err
		}
		return attendance.RecordResponse{}, fmt.Errorf("failed to resolve leave: %w", storeErr(err))
	}

	return mapRecordToResponse(rec), nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

// mapRecordToResponse converts a Record entity to RecordResponse.
func mapRecordToResponse(rec attendance.Record) attendance.RecordResponse {
	return attendance.RecordResponse{
		ID:           rec.ID,
		UserID:       rec.UserID,
		Date:         rec.Date.Format("2006-01-02"),
		CheckInTime:  timePtrToString(rec.CheckIn),
		CheckOutTime: timePtrToString(rec.CheckOut),
		TotalHours:   rec.TotalHours,
		IsPresent:    rec.IsPresent,
		IsOnLeave:    rec.IsOnLeave,
		LeaveStatus:  rec.LeaveStatus,
		LeaveType:    rec.LeaveType,
		LeaveReason:  rec.LeaveReason,
		Status:       rec.Status,
		CreatedAt:    formatTimestamp(rec.CreatedAt),
		UpdatedAt:    formatTimestamp(rec.UpdatedAt),
	}
}
