package attendance

import (
	"context"
)

// Service defines business logic for attendance and break operations.
// Callers pass the authenticated user explicitly; nothing in here reads
// ambient session state.
type Service interface {
	// CheckIn opens today's session for the user.
	CheckIn(ctx context.Context, userID string) (RecordResponse, error)

	// CheckOut closes today's open session, closing any open break
	// first, and records the projected total hours.
	CheckOut(ctx context.Context, userID string) (RecordResponse, error)

	// StartBreak opens a break interval on the current session.
	StartBreak(ctx context.Context, userID string) error

	// EndBreak closes the open break interval; no-op if none is open.
	EndBreak(ctx context.Context, userID string) error

	// Today rehydrates session state from the store and projects the
	// current worked hours.
	Today(ctx context.Context, userID string) (TodayStatusResponse, error)

	// History retrieves the user's attendance records.
	History(ctx context.Context, userID string, filter HistoryFilter) (ListRecordsResponse, error)

	// ExportHistory renders the user's attendance records as an XLSX
	// workbook.
	ExportHistory(ctx context.Context, userID string, filter HistoryFilter) ([]byte, error)

	// ApplyLeave creates a leave-flagged record for the given day.
	ApplyLeave(ctx context.Context, req ApplyLeaveRequest) (RecordResponse, error)

	// ApproveLeave approves a pending leave record.
	ApproveLeave(ctx context.Context, id string) (RecordResponse, error)

	// RejectLeave rejects a pending leave record with a reason.
	RejectLeave(ctx context.Context, req RejectLeaveRequest) (RecordResponse, error)
}
