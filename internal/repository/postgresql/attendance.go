package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shiftdesk/timeclock-backend-go/internal/domain/attendance"
	"github.com/shiftdesk/timeclock-backend-go/internal/pkg/database"
)

const uniqueViolationCode = "23505"

const recordColumns = `id, user_id, date, check_in, check_out, total_hours,
	   is_present, is_on_leave, leave_status, leave_type, leave_reason,
	   status, created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Date, &rec.CheckIn, &rec.CheckOut, &rec.TotalHours,
		&rec.IsPresent, &rec.IsOnLeave, &rec.LeaveStatus, &rec.LeaveType, &rec.LeaveReason,
		&rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

// CreateCheckIn implements attendance.Repository. The partial unique
// index on (user_id, date) WHERE check_out IS NULL is the store-level
// guard against duplicate open sessions; its violation surfaces as
// ErrDuplicateOpenSession.
func (a *attendanceRepository) CreateCheckIn(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	rec.ID = uuid.New().String()

	query := `
		INSERT INTO attendance_records (
			id, user_id, date, check_in, is_present, is_on_leave, status
		) VALUES (
			$1, $2, $3, $4, $5, false, $6
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Date,
		rec.CheckIn,
		rec.IsPresent,
		rec.Status,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return attendance.Record{}, attendance.ErrDuplicateOpenSession
		}
		return attendance.Record{}, fmt.Errorf("failed to create check-in: %w", err)
	}

	return rec, nil
}

// UpdateCheckOut implements attendance.Repository. An update that
// matches no open row is the authoritative no-active-session signal;
// on success the response comes from the stored row, not from values
// the caller assembled.
func (a *attendanceRepository) UpdateCheckOut(ctx context.Context, userID string, date time.Time, checkOut time.Time, totalHours float64) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		UPDATE attendance_records
		SET check_out = $1, total_hours = $2, updated_at = now()
		WHERE user_id = $3
		  AND date = $4
		  AND check_in IS NOT NULL
		  AND check_out IS NULL
		  AND is_on_leave = false
		RETURNING %s
	`, recordColumns)

	rec, err := scanRecord(q.QueryRow(ctx, query, checkOut, totalHours, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrNoActiveSession
		}
		return attendance.Record{}, fmt.Errorf("failed to update check-out: %w", err)
	}

	return rec, nil
}

// ListByUser implements attendance.Repository.
func (a *attendanceRepository) ListByUser(ctx context.Context, userID string, filter attendance.HistoryFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	baseWhere := "user_id = $1"
	args := []interface{}{userID}
	argIdx := 2

	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM attendance_records WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	sortBy := "date"
	switch filter.SortBy {
	case "check_in_time":
		sortBy = "check_in"
	case "check_out_time":
		sortBy = "check_out"
	case "status":
		sortBy = "status"
	}

	sortOrder := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendance_records
		WHERE %s
		ORDER BY %s %s, created_at DESC
		LIMIT $%d OFFSET $%d
	`, recordColumns, baseWhere, sortBy, sortOrder, argIdx, argIdx+1)

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}

	return records, total, rows.Err()
}

// ListByUserAndDate implements attendance.Repository.
func (a *attendanceRepository) ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendance_records
		WHERE user_id = $1 AND date = $2
		ORDER BY created_at DESC
	`, recordColumns)

	rows, err := q.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records by date: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CreateLeave implements attendance.Repository.
func (a *attendanceRepository) CreateLeave(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	rec.ID = uuid.New().String()

	query := `
		INSERT INTO attendance_records (
			id, user_id, date, is_present, is_on_leave, leave_status, leave_type, leave_reason, status
		) VALUES (
			$1, $2, $3, false, true, $4, $5, $6, $7
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Date,
		rec.LeaveStatus,
		rec.LeaveType,
		rec.LeaveReason,
		rec.Status,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create leave record: %w", err)
	}

	return rec, nil
}

// ResolveLeave implements attendance.Repository. The row is locked for
// the duration of the check so two admins racing on the same request
// cannot both resolve it.
func (a *attendanceRepository) ResolveLeave(ctx context.Context, id string, status string, reason *string) (attendance.Record, error) {
	var rec attendance.Record

	err := WithTransaction(ctx, a.db, func(tx pgx.Tx) error {
		txCtx := ContextWithTx(ctx, tx)
		q := GetQuerier(txCtx, a.db)

		query := fmt.Sprintf(`
			SELECT %s
			FROM attendance_records
			WHERE id = $1
			FOR UPDATE
		`, recordColumns)

		current, err := scanRecord(q.QueryRow(txCtx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return attendance.ErrRecordNotFound
			}
			return fmt.Errorf("failed to get leave record: %w", err)
		}

		if !current.IsOnLeave {
			return attendance.ErrNotALeaveRecord
		}
		if current.LeaveStatus != nil && *current.LeaveStatus != attendance.LeaveStatusWaitingApproval {
			return attendance.ErrLeaveAlreadyProcessed
		}

		update := fmt.Sprintf(`
			UPDATE attendance_records
			SET leave_status = $1, leave_reason = COALESCE($2, leave_reason), updated_at = now()
			WHERE id = $3
			RETURNING %s
		`, recordColumns)

		rec, err = scanRecord(q.QueryRow(txCtx, update, status, reason, id))
		if err != nil {
			return fmt.Errorf("failed to update leave status: %w", err)
		}

		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}

	return rec, nil
}

// ListStaleOpenSessions implements attendance.Repository.
func (a *attendanceRepository) ListStaleOpenSessions(ctx context.Context, before time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendance_records
		WHERE date < $1
		  AND check_in IS NOT NULL
		  AND check_out IS NULL
		  AND is_on_leave = false
		ORDER BY date ASC
	`, recordColumns)

	rows, err := q.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale open sessions: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stale session: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// AutoClose implements attendance.Repository.
func (a *attendanceRepository) AutoClose(ctx context.Context, id string, checkOut time.Time, totalHours float64) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET check_out = $1, total_hours = $2, status = $3, updated_at = now()
		WHERE id = $4 AND check_out IS NULL
	`

	tag, err := q.Exec(ctx, query, checkOut, totalHours, attendance.StatusAutoClosed, id)
	if err != nil {
		return fmt.Errorf("failed to auto-close session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrRecordNotFound
	}

	return nil
}
