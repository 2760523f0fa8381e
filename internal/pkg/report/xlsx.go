package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shiftdesk/timeclock-backend-go/internal/domain/attendance"
)

const sheetName = "Attendance"

var headers = []string{"Date", "Check In", "Check Out", "Total Hours", "Status", "Leave Type", "Leave Status", "Leave Reason"}

// AttendanceXLSX renders attendance records into an XLSX workbook,
// one row per record, newest first as given.
func AttendanceXLSX(records []attendance.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for i, rec := range records {
		row := []interface{}{
			rec.Date.Format("2006-01-02"),
			formatTime(rec.CheckIn),
			formatTime(rec.CheckOut),
			formatHours(rec.TotalHours),
			rec.Status,
			deref(rec.LeaveType),
			deref(rec.LeaveStatus),
			deref(rec.LeaveReason),
		}
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatHours(h *float64) interface{} {
	if h == nil {
		return ""
	}
	return *h
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
